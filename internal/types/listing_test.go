package types

import (
	"testing"
	"time"
)

func TestNormalized(t *testing.T) {
	tests := []struct {
		name         string
		record       ListingRecord
		wantVIN      string
		wantTitle    string
		wantDealer   string
		wantLocation string
	}{
		{
			name: "full record",
			record: ListingRecord{
				VIN:        "1hgcm82633a004352",
				Make:       " Honda ",
				Model:      "Accord",
				Year:       2021,
				DealerName: "Bob's Autos",
				Location:   "Austin, TX",
			},
			wantVIN:      "1HGCM82633A004352",
			wantTitle:    "2021 HONDA ACCORD",
			wantDealer:   "BOB'S AUTOS",
			wantLocation: "AUSTIN, TX",
		},
		{
			name: "vin with separators and spaces",
			record: ListingRecord{
				VIN: "1hg-cm8 2633a:004352",
			},
			wantVIN: "1HGCM82633A004352",
		},
		{
			name: "missing year omitted from title",
			record: ListingRecord{
				Make:  "Toyota",
				Model: "Camry",
			},
			wantTitle: "TOYOTA CAMRY",
		},
		{
			name:   "empty record",
			record: ListingRecord{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.record.Normalized()
			if n.VIN != tt.wantVIN {
				t.Errorf("VIN = %q, want %q", n.VIN, tt.wantVIN)
			}
			if n.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", n.Title, tt.wantTitle)
			}
			if n.Dealer != tt.wantDealer {
				t.Errorf("Dealer = %q, want %q", n.Dealer, tt.wantDealer)
			}
			if n.Location != tt.wantLocation {
				t.Errorf("Location = %q, want %q", n.Location, tt.wantLocation)
			}
			if n.Record != &tt.record {
				t.Error("Normalized view should point back at the source record")
			}
		})
	}
}

func TestCanonicalListingValidate(t *testing.T) {
	valid := CanonicalListing{MergedFrom: 3, MergedAt: time.Now()}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	passthrough := CanonicalListing{MergedFrom: 1}
	if err := passthrough.Validate(); err != nil {
		t.Errorf("pass-through record should validate: %v", err)
	}

	zero := CanonicalListing{}
	if err := zero.Validate(); err == nil {
		t.Error("expected error for merged_from = 0")
	}

	noStamp := CanonicalListing{MergedFrom: 2}
	if err := noStamp.Validate(); err == nil {
		t.Error("expected error for merged record without timestamp")
	}
}

func TestMetricLookup(t *testing.T) {
	mae := 1234.5
	r2 := 0.87
	rec := &ModelMetricsRecord{MAE: &mae, R2: &r2, ModelVersion: "v1"}

	if v, ok := rec.Metric(MetricMAE); !ok || v != 1234.5 {
		t.Errorf("Metric(mae) = %v, %v", v, ok)
	}
	if v, ok := rec.Metric(MetricR2); !ok || v != 0.87 {
		t.Errorf("Metric(r2) = %v, %v", v, ok)
	}
	if _, ok := rec.Metric(MetricRMSE); ok {
		t.Error("absent rmse should report ok=false")
	}
	if _, ok := (*ModelMetricsRecord)(nil).Metric(MetricMAE); ok {
		t.Error("nil record should report ok=false")
	}
}

func TestModelMetricsValidate(t *testing.T) {
	neg := -1.0
	tests := []struct {
		name    string
		rec     ModelMetricsRecord
		wantErr bool
	}{
		{"valid", ModelMetricsRecord{ModelVersion: "v1"}, false},
		{"missing version", ModelMetricsRecord{}, true},
		{"negative samples", ModelMetricsRecord{ModelVersion: "v1", TrainingSamples: -1}, true},
		{"negative mae", ModelMetricsRecord{ModelVersion: "v1", MAE: &neg}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
