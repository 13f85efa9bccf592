package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ListingRecord is one scraped vehicle-for-sale record from one source at
// one point in time. Any field may be absent: zero values mean "unknown".
// Records are immutable once scraped; identity for dedup purposes is never
// the VIN alone (VINs are frequently missing or garbled) but whole-record
// similarity.
type ListingRecord struct {
	VIN           string    `json:"vin,omitempty"`
	ListingURL    string    `json:"listing_url,omitempty"`
	Make          string    `json:"make,omitempty"`
	Model         string    `json:"model,omitempty"`
	Year          int       `json:"year,omitempty"`
	Price         float64   `json:"price,omitempty"`
	Mileage       float64   `json:"mileage,omitempty"`
	BodyType      string    `json:"body_type,omitempty"`
	FuelType      string    `json:"fuel_type,omitempty"`
	Transmission  string    `json:"transmission,omitempty"`
	Drivetrain    string    `json:"drivetrain,omitempty"`
	ExteriorColor string    `json:"exterior_color,omitempty"`
	InteriorColor string    `json:"interior_color,omitempty"`
	Engine        string    `json:"engine,omitempty"`
	Features      []string  `json:"features,omitempty"`
	ImageURLs     []string  `json:"image_urls,omitempty"`
	DealerName    string    `json:"dealer_name,omitempty"`
	Location      string    `json:"location,omitempty"`
	Source        string    `json:"source,omitempty"`
	ScrapedAt     time.Time `json:"scraped_at,omitempty"`
}

// NormalizedListing is the comparison view of a ListingRecord. All string
// fields are uppercased and trimmed, the VIN is stripped of
// non-alphanumerics, and a synthetic title ("{year} {make} {model}") is
// precomputed. Normalization happens exactly once, at ingestion or at the
// dedup engine boundary, never scattered across consumers.
type NormalizedListing struct {
	Record *ListingRecord

	VIN      string
	Title    string
	Dealer   string
	Location string
	Price    float64
	Mileage  float64
	Year     int
}

// Normalized builds the comparison view for this record.
func (r *ListingRecord) Normalized() *NormalizedListing {
	n := &NormalizedListing{
		Record:   r,
		VIN:      NormalizeVIN(r.VIN),
		Dealer:   strings.ToUpper(strings.TrimSpace(r.DealerName)),
		Location: strings.ToUpper(strings.TrimSpace(r.Location)),
		Price:    r.Price,
		Mileage:  r.Mileage,
		Year:     r.Year,
	}

	makeNorm := strings.ToUpper(strings.TrimSpace(r.Make))
	modelNorm := strings.ToUpper(strings.TrimSpace(r.Model))
	yearStr := ""
	if r.Year > 0 {
		yearStr = strconv.Itoa(r.Year)
	}
	n.Title = strings.Join(strings.Fields(yearStr+" "+makeNorm+" "+modelNorm), " ")

	return n
}

// NormalizeVIN uppercases a VIN and strips every non-alphanumeric rune.
func NormalizeVIN(vin string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(vin) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CanonicalListing is the single merged representation of a duplicate
// cluster: scalar fields from the highest-quality member, set-valued fields
// unioned across the cluster.
type CanonicalListing struct {
	ListingRecord

	// MergedFrom is the number of listings merged into this record.
	// 1 means the record passed through deduplication unmodified.
	MergedFrom int `json:"merged_from"`

	// MergedAt is when the merge was performed. Zero for pass-through records.
	MergedAt time.Time `json:"merge_timestamp,omitempty"`
}

// Validate checks structural invariants on a canonical listing.
func (c *CanonicalListing) Validate() error {
	if c.MergedFrom < 1 {
		return fmt.Errorf("merged_from must be >= 1 (got %d)", c.MergedFrom)
	}
	if c.MergedFrom > 1 && c.MergedAt.IsZero() {
		return fmt.Errorf("merge_timestamp must be set when merged_from > 1")
	}
	return nil
}

// TrainingRow is one trainable observation extracted from a persisted
// listing. Rows are trainable when the price falls inside the intake
// bounds and is non-null.
type TrainingRow struct {
	Make    string  `json:"make"`
	Model   string  `json:"model"`
	Year    int     `json:"year"`
	Mileage float64 `json:"mileage"`
	Price   float64 `json:"price"`
}
