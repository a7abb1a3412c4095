package models

import (
	"strconv"
	"strings"
)

// CandidateApartment is a catalog apartment that may be the subject of a transaction.
// Candidates are fetched per region code and are read-only to the matcher.
type CandidateApartment struct {
	ApartmentID int64  `json:"apartment_id" db:"apartment_id" validate:"required"`
	AptName     string `json:"apt_name" db:"apt_name" validate:"required"`
}

// DetailRecord holds the optional detail joined to a candidate.
// BuildYear is a string starting with a four-digit year ("1998", "19981204"); it may be empty.
type DetailRecord struct {
	ApartmentID int64  `json:"apartment_id" db:"apartment_id"`
	LotAddress  string `json:"lot_address" db:"lot_address"`
	BuildYear   string `json:"build_year" db:"build_year"`
}

// Region is one administrative neighborhood within a sigungu (city/county/district).
type Region struct {
	RegionCode  string `json:"region_code" db:"region_code"`
	SigunguCode string `json:"sigungu_code" db:"sigungu_code"`
	DongName    string `json:"dong_name" db:"dong_name"`
}

// ParseBuildYear reads the leading four-digit year of a build-year string.
// Anything shorter or non-numeric yields false.
func ParseBuildYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}
