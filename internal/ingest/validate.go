package ingest

import (
	"fmt"

	"github.com/lotwise/lotwise/internal/types"
)

// ValidationRules bound the fields a scraped listing may carry. Fields
// are optional unless noted; a bound applies only when the field is
// present, since downstream scoring tolerates missing data.
type ValidationRules struct {
	PriceMin   float64
	PriceMax   float64
	YearMin    int
	YearMax    int
	MileageMin float64
	MileageMax float64
}

// DefaultValidationRules returns the stock intake bounds.
func DefaultValidationRules() ValidationRules {
	return ValidationRules{
		PriceMin:   1000,
		PriceMax:   500000,
		YearMin:    1980,
		YearMax:    2025,
		MileageMin: 0,
		MileageMax: 999999,
	}
}

// ValidationError reports why a listing was rejected at intake.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks one listing against the rules. Make and model are
// required; numeric bounds apply only to fields that are set. A
// malformed VIN is not a rejection: the deduplication engine treats
// VIN validity as a scoring signal, not a hard gate.
func (r ValidationRules) Validate(listing *types.ListingRecord) error {
	if listing == nil {
		return &ValidationError{Field: "record", Reason: "missing"}
	}
	if listing.Make == "" {
		return &ValidationError{Field: "make", Reason: "required"}
	}
	if listing.Model == "" {
		return &ValidationError{Field: "model", Reason: "required"}
	}
	if listing.Price != 0 && (listing.Price < r.PriceMin || listing.Price > r.PriceMax) {
		return &ValidationError{
			Field:  "price",
			Reason: fmt.Sprintf("%v outside [%v, %v]", listing.Price, r.PriceMin, r.PriceMax),
		}
	}
	if listing.Year != 0 && (listing.Year < r.YearMin || listing.Year > r.YearMax) {
		return &ValidationError{
			Field:  "year",
			Reason: fmt.Sprintf("%d outside [%d, %d]", listing.Year, r.YearMin, r.YearMax),
		}
	}
	if listing.Mileage < r.MileageMin || listing.Mileage > r.MileageMax {
		return &ValidationError{
			Field:  "mileage",
			Reason: fmt.Sprintf("%v outside [%v, %v]", listing.Mileage, r.MileageMin, r.MileageMax),
		}
	}
	return nil
}
