package models

import "time"

// TransactionKind distinguishes the feeds a transaction record came from.
type TransactionKind string

const (
	TransactionKindSale TransactionKind = "sale"
	TransactionKindRent TransactionKind = "rent"
)

// TransactionRecord is one row of a government real-estate transaction feed
// Field order matches schema: id, kind, region_code, sigungu_code, dong_name, apt_name, ...
type TransactionRecord struct {
	ID          string          `json:"id" db:"id" validate:"required"`
	Kind        TransactionKind `json:"kind" db:"kind" validate:"required,oneof=sale rent"`
	RegionCode  string          `json:"region_code,omitempty" db:"region_code"`
	SigunguCode string          `json:"sigungu_code" db:"sigungu_code" validate:"required"`
	DongName    string          `json:"dong_name" db:"dong_name"`
	AptName     string          `json:"apt_name" db:"apt_name"`
	LotNumber   string          `json:"lot_number" db:"lot_number"`
	BuildYear   string          `json:"build_year" db:"build_year"`
	DealDate    time.Time       `json:"deal_date" db:"deal_date"`
	ApartmentID *int64          `json:"apartment_id,omitempty" db:"apartment_id"`
	MatchScore  *float64        `json:"match_score,omitempty" db:"match_score"`
	MatchedAt   *time.Time      `json:"matched_at,omitempty" db:"matched_at"`
}

// IsMatched reports whether the record has already been attributed to an apartment.
func (t TransactionRecord) IsMatched() bool {
	return t.ApartmentID != nil
}
