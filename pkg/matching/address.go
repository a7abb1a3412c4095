package matching

import (
	"fmt"
	"strings"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/bunji"
	"github.com/Ramsey-B/fern/pkg/models"
)

// AddressMatchScore is the score of an address-only match. It is only produced when a
// single candidate agrees on the lot number.
const AddressMatchScore = 100.0

// AddressMatcher attributes records whose apartment name is unusable, by lot number alone.
type AddressMatcher struct {
	config Config
}

// NewAddressMatcher creates an address-only matcher.
func NewAddressMatcher(config Config) *AddressMatcher {
	return &AddressMatcher{config: config}
}

// Match accepts a candidate when its lot main number equals the record's, its sub number
// equals too when both have one, and the build years are within a year when both are
// known. Only a unique survivor is a match.
func (a *AddressMatcher) Match(lotNumber, buildYear string, candidates []models.CandidateApartment, details map[int64]models.DetailRecord) Result {
	lot := bunji.Normalize(lotNumber)
	if strings.TrimSpace(lotNumber) == "" || !lot.HasMain() {
		return NoInput{Summary: Summary{Reason: "lot number is empty", CandidatesCount: len(candidates)}}
	}

	survivors := ectolinq.Filter(candidates, func(c models.CandidateApartment) bool {
		detail, ok := details[c.ApartmentID]
		if !ok {
			return false
		}
		return addressAgrees(lot, buildYear, detail)
	})

	summary := Summary{
		CandidatesCount: len(candidates),
		FilteredCount:   len(survivors),
		CandidateNames:  ectolinq.Map(survivors, func(c models.CandidateApartment) string { return c.AptName }),
	}
	if limit := a.config.MaxCandidateNames; limit > 0 && len(summary.CandidateNames) > limit {
		summary.CandidateNames = summary.CandidateNames[:limit]
	}

	switch len(survivors) {
	case 0:
		summary.Reason = fmt.Sprintf("no candidate matches lot number %s", lot)
		return NoCandidates{Summary: summary}
	case 1:
		c := survivors[0]
		summary.Reason = fmt.Sprintf("matched %s by lot number %s", c.AptName, lot)
		return Matched{Summary: summary, ApartmentID: c.ApartmentID, ApartmentName: c.AptName, Score: AddressMatchScore}
	default:
		summary.Reason = fmt.Sprintf("ambiguous: %d candidates share lot number %s", len(survivors), lot)
		return Ambiguous{Summary: summary, BestScore: AddressMatchScore, RunnerUpScore: AddressMatchScore}
	}
}

func addressAgrees(lot bunji.Number, buildYear string, detail models.DetailRecord) bool {
	candidate := bunji.FromAddress(detail.LotAddress)
	if !candidate.HasMain() || candidate.Main != lot.Main {
		return false
	}
	if lot.HasSub() && candidate.HasSub() && lot.Sub != candidate.Sub {
		return false
	}
	_, apiKnown := models.ParseBuildYear(buildYear)
	_, candidateKnown := models.ParseBuildYear(detail.BuildYear)
	if apiKnown && candidateKnown {
		return yearsWithin(buildYear, detail.BuildYear, BuildYearBonusWindow)
	}
	return true
}
