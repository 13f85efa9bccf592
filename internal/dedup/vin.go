package dedup

import (
	"fmt"
	"strings"
)

// vinAlphabet is the standard VIN character set: digits plus letters
// excluding I, O, and Q.
const vinAlphabet = "ABCDEFGHJKLMNPRSTUVWXYZ0123456789"

// vinYearCodes maps the 10th VIN character to a model year. Codes outside
// the table yield an unknown year, not a validation failure.
var vinYearCodes = map[byte]int{
	'A': 2010, 'B': 2011, 'C': 2012, 'D': 2013, 'E': 2014,
	'F': 2015, 'G': 2016, 'H': 2017, 'J': 2018, 'K': 2019,
	'L': 2020, 'M': 2021, 'N': 2022, 'P': 2023, 'R': 2024,
}

// VINInfo is the decoded structure of a valid VIN.
type VINInfo struct {
	VIN              string `json:"vin"`
	CountryCode      string `json:"country_code"`
	ManufacturerCode string `json:"manufacturer_code"`
	YearCode         string `json:"year_code"`

	// Year is nil when the year code falls outside the decode table.
	Year *int `json:"year"`
}

// InvalidVINError reports a structurally malformed VIN. It is a
// recoverable, structured result: callers inspect it rather than treating
// it as a fatal fault.
type InvalidVINError struct {
	VIN    string
	Reason string
}

func (e *InvalidVINError) Error() string {
	return fmt.Sprintf("invalid VIN %q: %s", e.VIN, e.Reason)
}

// ValidateVIN normalizes a VIN (strips spaces, uppercases) and validates
// its structure: exactly 17 characters from the standard VIN alphabet
// (digits plus letters excluding I, O, Q). On success it decodes the
// country code, manufacturer code, and model year.
func ValidateVIN(vin string) (*VINInfo, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(vin, " ", ""))

	if normalized == "" {
		return nil, &InvalidVINError{VIN: vin, Reason: "empty VIN"}
	}
	if len(normalized) != 17 {
		return nil, &InvalidVINError{
			VIN:    normalized,
			Reason: fmt.Sprintf("invalid length: %d (should be 17)", len(normalized)),
		}
	}
	for i := 0; i < len(normalized); i++ {
		if !strings.ContainsRune(vinAlphabet, rune(normalized[i])) {
			return nil, &InvalidVINError{
				VIN:    normalized,
				Reason: fmt.Sprintf("invalid character %q at position %d", normalized[i], i),
			}
		}
	}

	info := &VINInfo{
		VIN:              normalized,
		CountryCode:      normalized[0:1],
		ManufacturerCode: normalized[0:3],
		YearCode:         normalized[9:10],
	}
	if year, ok := vinYearCodes[normalized[9]]; ok {
		info.Year = &year
	}
	return info, nil
}
