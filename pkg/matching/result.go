package matching

import (
	"github.com/Ramsey-B/fern/pkg/veto"
)

// Status names the outcome of a match attempt.
type Status string

const (
	StatusMatched        Status = "matched"
	StatusVetoed         Status = "vetoed"
	StatusBelowThreshold Status = "below_threshold"
	StatusAmbiguous      Status = "ambiguous"
	StatusNoInput        Status = "no_input"
	StatusNoCandidates   Status = "no_candidates"
)

// Result is the outcome of one match call. The concrete type is one of Matched, Vetoed,
// BelowThreshold, Ambiguous, NoInput or NoCandidates.
type Result interface {
	Status() Status
	summary() Summary
}

// Summary is the diagnostic part shared by every outcome.
type Summary struct {
	Reason          string   `json:"reason"`
	CandidatesCount int      `json:"candidates_count"`
	FilteredCount   int      `json:"filtered_count"`
	CandidateNames  []string `json:"candidate_names"`
}

func (s Summary) summary() Summary { return s }

// Matched attributes the record to a single apartment.
type Matched struct {
	Summary
	ApartmentID   int64
	ApartmentName string
	Score         float64
}

// Vetoed means every candidate was removed by a veto. Veto is the first one recorded.
type Vetoed struct {
	Summary
	Veto veto.Veto
}

// BelowThreshold means the best surviving candidate did not reach the threshold.
type BelowThreshold struct {
	Summary
	BestScore float64
}

// Ambiguous means the runner-up is too close to the best candidate to pick either.
type Ambiguous struct {
	Summary
	BestScore     float64
	RunnerUpScore float64
}

// NoInput means the record carried nothing to match on.
type NoInput struct {
	Summary
}

// NoCandidates means there was nothing to match against.
type NoCandidates struct {
	Summary
}

func (Matched) Status() Status        { return StatusMatched }
func (Vetoed) Status() Status         { return StatusVetoed }
func (BelowThreshold) Status() Status { return StatusBelowThreshold }
func (Ambiguous) Status() Status      { return StatusAmbiguous }
func (NoInput) Status() Status        { return StatusNoInput }
func (NoCandidates) Status() Status   { return StatusNoCandidates }

// Record is the flat wire form of a Result used in events and HTTP responses.
type Record struct {
	Status          Status   `json:"status"`
	Matched         bool     `json:"matched"`
	ApartmentID     *int64   `json:"apartment_id"`
	ApartmentName   *string  `json:"apartment_name"`
	Score           float64  `json:"score"`
	Reason          string   `json:"reason"`
	VetoReason      *string  `json:"veto_reason"`
	VetoKind        string   `json:"veto_kind,omitempty"`
	CandidatesCount int      `json:"candidates_count"`
	FilteredCount   int      `json:"filtered_count"`
	CandidateNames  []string `json:"candidate_names"`
}

// ToRecord flattens r. A nil result flattens to a no-input record.
func ToRecord(r Result) Record {
	if r == nil {
		r = NoInput{Summary: Summary{Reason: "no result"}}
	}
	s := r.summary()
	rec := Record{
		Status:          r.Status(),
		Reason:          s.Reason,
		CandidatesCount: s.CandidatesCount,
		FilteredCount:   s.FilteredCount,
		CandidateNames:  s.CandidateNames,
	}
	if rec.CandidateNames == nil {
		rec.CandidateNames = []string{}
	}

	switch v := r.(type) {
	case Matched:
		id, name := v.ApartmentID, v.ApartmentName
		rec.Matched = true
		rec.ApartmentID = &id
		rec.ApartmentName = &name
		rec.Score = v.Score
	case Vetoed:
		reason := v.Veto.Reason
		rec.VetoReason = &reason
		rec.VetoKind = string(v.Veto.Kind)
	case BelowThreshold:
		rec.Score = v.BestScore
	case Ambiguous:
		rec.Score = v.BestScore
	}
	return rec
}
