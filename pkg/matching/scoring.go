package matching

import (
	"math"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/Ramsey-B/fern/pkg/aptname"
	"github.com/Ramsey-B/fern/pkg/bunji"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Score weights. The three components add up to 100.
const (
	NameWeight    = 40.0
	MetadataBonus = 5.0
	// BuildYearBonusWindow is the year difference that still earns the metadata bonus.
	BuildYearBonusWindow = 1
	// IdentityScore is the total of a candidate whose normalized name equals the record's.
	IdentityScore = 100.0
)

// Scorer provides the string and value comparisons used to rank candidates
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// SequenceRatio returns the matching-blocks similarity (2*M/T) of two strings compared
// rune by rune. Returns 0.0 when either side is empty.
func (s *Scorer) SequenceRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}
	return difflib.NewMatcher(runeStrings(a), runeStrings(b)).Ratio()
}

// CharJaccard returns |A∩B| / |A∪B| over the distinct runes of each string.
func (s *Scorer) CharJaccard(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	setA := make(map[rune]struct{})
	for _, r := range a {
		setA[r] = struct{}{}
	}
	setB := make(map[rune]struct{})
	for _, r := range b {
		setB[r] = struct{}{}
	}

	intersection := 0
	for r := range setA {
		if _, ok := setB[r]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// NameSimilarity is the best of three views of the pair: the sequence ratio of the
// normalized forms, its blend with character Jaccard, and the sequence ratio of the
// block/series-free forms. Result is in [0, 1].
func (s *Scorer) NameSimilarity(api, candidate aptname.ProcessedName) float64 {
	seq := s.SequenceRatio(api.Normalized, candidate.Normalized)
	blend := (s.CharJaccard(api.Normalized, candidate.Normalized) + seq) / 2
	strict := s.SequenceRatio(api.NormalizedStrict, candidate.NormalizedStrict)
	return math.Max(seq, math.Max(blend, strict))
}

// Breakdown is the per-component score of one candidate. Identity is set when the
// normalized names are equal; the total is then IdentityScore whatever the components say.
type Breakdown struct {
	Bunji    float64 `json:"bunji"`
	Name     float64 `json:"name"`
	Metadata float64 `json:"metadata"`
	Total    float64 `json:"total"`
	Identity bool    `json:"identity,omitempty"`
}

// Score combines the lot number, name and metadata components into a 0-100 total. Callers
// score only candidates that passed the vetoes, so an identical name is a full match.
func (s *Scorer) Score(api, candidate aptname.ProcessedName, similarity float64, apiLot bunji.Number, apiYear string, detail models.DetailRecord) Breakdown {
	b := Breakdown{
		Bunji:    bunji.MatchScore(apiLot, bunji.FromAddress(detail.LotAddress)),
		Name:     similarity * NameWeight,
		Metadata: s.Metadata(api, candidate, apiYear, detail.BuildYear),
	}
	if api.Normalized != "" && api.Normalized == candidate.Normalized {
		b.Identity = true
		b.Total = IdentityScore
		return b
	}
	b.Total = roundScore(b.Bunji + b.Name + b.Metadata)
	return b
}

// Metadata adds a bonus for each of block, series, brand and build year that is known on
// both sides and agrees.
func (s *Scorer) Metadata(api, candidate aptname.ProcessedName, apiYear, candidateYear string) float64 {
	score := 0.0
	if api.Block != nil && candidate.Block != nil && *api.Block == *candidate.Block {
		score += MetadataBonus
	}
	if api.Series != nil && candidate.Series != nil && *api.Series == *candidate.Series {
		score += MetadataBonus
	}
	if api.Brand != nil && candidate.Brand != nil && *api.Brand == *candidate.Brand {
		score += MetadataBonus
	}
	if yearsWithin(apiYear, candidateYear, BuildYearBonusWindow) {
		score += MetadataBonus
	}
	return score
}

// yearsWithin reports whether both years parse and differ by at most window.
func yearsWithin(a, b string, window int) bool {
	ya, okA := models.ParseBuildYear(a)
	yb, okB := models.ParseBuildYear(b)
	if !okA || !okB {
		return false
	}
	diff := ya - yb
	if diff < 0 {
		diff = -diff
	}
	return diff <= window
}

// roundScore keeps two decimals so threshold comparisons are not decided by float noise.
func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}

func runeStrings(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
