// Package matching attributes a transaction record to one catalog apartment, or declines.
// Candidates pass through the veto rules first; survivors are scored and the best one is
// accepted only when it clears the threshold with a clear margin over the runner-up.
package matching

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/aptname"
	"github.com/Ramsey-B/fern/pkg/bunji"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/veto"
)

// Config contains the decision thresholds
type Config struct {
	Threshold          float64 // Minimum score to accept a match (default: 85)
	AmbiguityMargin    float64 // Best minus runner-up must be at least this (default: 10)
	BuildYearTolerance int     // Largest build-year difference that is not a veto (default: 3)
	MaxCandidateNames  int     // Names kept in a result for diagnostics (default: 10)
}

// DefaultConfig returns default matcher configuration
func DefaultConfig() Config {
	return Config{
		Threshold:          85,
		AmbiguityMargin:    10,
		BuildYearTolerance: veto.DefaultBuildYearTolerance,
		MaxCandidateNames:  10,
	}
}

// Query is the incoming record as seen by the matcher. Optional fields are empty when unknown.
type Query struct {
	APIName    string `json:"api_name"`
	RegionCode string `json:"region_code"`
	DongName   string `json:"dong_name,omitempty"`
	LotNumber  string `json:"lot_number,omitempty"`
	BuildYear  string `json:"build_year,omitempty"`
}

// Matcher scores candidates by name, lot number and metadata
type Matcher struct {
	names  *aptname.Processor
	checks *veto.Checker
	scorer *Scorer
	config Config
}

// NewMatcher creates a matcher. names is shared with other callers so candidate names
// are processed once per cache lifetime.
func NewMatcher(names *aptname.Processor, config Config) *Matcher {
	return &Matcher{
		names:  names,
		checks: veto.NewChecker(config.BuildYearTolerance),
		scorer: NewScorer(),
		config: config,
	}
}

// ScoredCandidate is a candidate that survived the veto rules.
type ScoredCandidate struct {
	Candidate models.CandidateApartment
	Breakdown Breakdown
}

type vetoedCandidate struct {
	candidate models.CandidateApartment
	veto      veto.Veto
}

// Match picks the apartment q refers to among candidates. details may be nil or partial.
// It never fails; every input yields a Result.
func (m *Matcher) Match(q Query, candidates []models.CandidateApartment, details map[int64]models.DetailRecord) Result {
	api := m.names.Process(q.APIName)
	if api.IsEmpty() {
		return NoInput{Summary: Summary{Reason: "apartment name is empty", CandidatesCount: len(candidates)}}
	}
	if len(candidates) == 0 {
		return NoCandidates{Summary: Summary{Reason: fmt.Sprintf("no candidates in region %s", q.RegionCode)}}
	}

	apiLot := bunji.Normalize(q.LotNumber)

	var scored []ScoredCandidate
	var vetoed []vetoedCandidate
	for _, c := range candidates {
		processed := m.names.Process(c.AptName)
		detail := details[c.ApartmentID]
		similarity := m.scorer.NameSimilarity(api, processed)

		if v, ok := m.checks.Check(api, processed, veto.Inputs{
			APILotNumber:        q.LotNumber,
			CandidateLotAddress: detail.LotAddress,
			APIBuildYear:        q.BuildYear,
			CandidateBuildYear:  detail.BuildYear,
			NameSimilarity:      similarity,
		}); ok {
			vetoed = append(vetoed, vetoedCandidate{candidate: c, veto: v})
			continue
		}

		scored = append(scored, ScoredCandidate{
			Candidate: c,
			Breakdown: m.scorer.Score(api, processed, similarity, apiLot, q.BuildYear, detail),
		})
	}

	summary := Summary{
		CandidatesCount: len(candidates),
		FilteredCount:   len(scored),
	}
	return m.decide(scored, vetoed, summary)
}

// decide applies the decision policy to already scored survivors.
func (m *Matcher) decide(scored []ScoredCandidate, vetoed []vetoedCandidate, summary Summary) Result {
	sortByScore(scored)
	summary.CandidateNames = m.candidateNames(scored, vetoed)

	if len(scored) == 0 {
		first := vetoed[0].veto
		summary.Reason = fmt.Sprintf("all %d candidates vetoed; first: %s", len(vetoed), first.Reason)
		return Vetoed{Summary: summary, Veto: first}
	}

	best := scored[0]
	if best.Breakdown.Total < m.config.Threshold {
		summary.Reason = fmt.Sprintf("best score %.2f below threshold %.2f (%s)", best.Breakdown.Total, m.config.Threshold, best.Candidate.AptName)
		return BelowThreshold{Summary: summary, BestScore: best.Breakdown.Total}
	}

	if len(scored) > 1 {
		second := scored[1]
		if best.Breakdown.Total-second.Breakdown.Total < m.config.AmbiguityMargin {
			summary.Reason = fmt.Sprintf("ambiguous: %s %.2f vs %s %.2f within margin %.2f",
				best.Candidate.AptName, best.Breakdown.Total,
				second.Candidate.AptName, second.Breakdown.Total,
				m.config.AmbiguityMargin)
			return Ambiguous{Summary: summary, BestScore: best.Breakdown.Total, RunnerUpScore: second.Breakdown.Total}
		}
	}

	summary.Reason = fmt.Sprintf("matched %s with score %.2f", best.Candidate.AptName, best.Breakdown.Total)
	return Matched{
		Summary:       summary,
		ApartmentID:   best.Candidate.ApartmentID,
		ApartmentName: best.Candidate.AptName,
		Score:         best.Breakdown.Total,
	}
}

// candidateNames lists survivors by score, then vetoed candidates in input order.
func (m *Matcher) candidateNames(scored []ScoredCandidate, vetoed []vetoedCandidate) []string {
	names := ectolinq.Map(scored, func(s ScoredCandidate) string { return s.Candidate.AptName })
	names = append(names, ectolinq.Map(vetoed, func(v vetoedCandidate) string { return v.candidate.AptName })...)
	if limit := m.config.MaxCandidateNames; limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names
}

// sortByScore orders by total descending; ties keep the lower apartment id first.
func sortByScore(scored []ScoredCandidate) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Breakdown.Total != scored[j].Breakdown.Total {
			return scored[i].Breakdown.Total > scored[j].Breakdown.Total
		}
		return scored[i].Candidate.ApartmentID < scored[j].Candidate.ApartmentID
	})
}

// HasUsableName reports whether name survives normalization; callers fall back to
// address-only matching otherwise.
func (m *Matcher) HasUsableName(name string) bool {
	return strings.TrimSpace(name) != "" && !m.names.Process(name).IsEmpty()
}
