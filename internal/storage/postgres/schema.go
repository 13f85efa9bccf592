package postgres

// schema is applied on every startup; all statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS raw_listings (
	id BIGSERIAL PRIMARY KEY,
	source TEXT NOT NULL,
	listing_data JSONB NOT NULL,
	scraped_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS vehicle_listings (
	id BIGSERIAL PRIMARY KEY,
	vin TEXT UNIQUE,
	make TEXT,
	model TEXT,
	year INTEGER,
	price DOUBLE PRECISION,
	mileage DOUBLE PRECISION,
	body_type TEXT,
	fuel_type TEXT,
	transmission TEXT,
	drivetrain TEXT,
	exterior_color TEXT,
	interior_color TEXT,
	engine TEXT,
	features JSONB,
	image_urls JSONB,
	location TEXT,
	dealer_name TEXT,
	listing_url TEXT,
	source TEXT,
	scraped_at TIMESTAMPTZ,
	merged_from INTEGER NOT NULL DEFAULT 1,
	merge_timestamp TIMESTAMPTZ,
	processed_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_vehicle_listings_scraped_at
	ON vehicle_listings(scraped_at);
CREATE INDEX IF NOT EXISTS idx_vehicle_listings_price
	ON vehicle_listings(price);

CREATE TABLE IF NOT EXISTS training_metrics (
	id BIGSERIAL PRIMARY KEY,
	mae DOUBLE PRECISION,
	rmse DOUBLE PRECISION,
	r2 DOUBLE PRECISION,
	mape DOUBLE PRECISION,
	model_version TEXT NOT NULL,
	training_samples INTEGER,
	training_time DOUBLE PRECISION,
	created_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS scraping_logs (
	id BIGSERIAL PRIMARY KEY,
	source TEXT,
	status TEXT,
	listings_scraped INTEGER,
	listings_stored INTEGER,
	error_message TEXT,
	execution_time DOUBLE PRECISION,
	created_at TIMESTAMPTZ DEFAULT NOW()
);
`
