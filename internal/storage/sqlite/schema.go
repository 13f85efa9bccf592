package sqlite

// schema is applied on every open; all statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS raw_listings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	listing_data TEXT NOT NULL,
	scraped_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS vehicle_listings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	vin TEXT UNIQUE,
	make TEXT,
	model TEXT,
	year INTEGER,
	price REAL,
	mileage REAL,
	body_type TEXT,
	fuel_type TEXT,
	transmission TEXT,
	drivetrain TEXT,
	exterior_color TEXT,
	interior_color TEXT,
	engine TEXT,
	features TEXT,
	image_urls TEXT,
	location TEXT,
	dealer_name TEXT,
	listing_url TEXT,
	source TEXT,
	scraped_at TIMESTAMP,
	merged_from INTEGER NOT NULL DEFAULT 1,
	merge_timestamp TIMESTAMP,
	processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_vehicle_listings_scraped_at
	ON vehicle_listings(scraped_at);
CREATE INDEX IF NOT EXISTS idx_vehicle_listings_price
	ON vehicle_listings(price);

CREATE TABLE IF NOT EXISTS training_metrics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	mae REAL,
	rmse REAL,
	r2 REAL,
	mape REAL,
	model_version TEXT NOT NULL,
	training_samples INTEGER,
	training_time REAL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS scraping_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT,
	status TEXT,
	listings_scraped INTEGER,
	listings_stored INTEGER,
	error_message TEXT,
	execution_time REAL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`
