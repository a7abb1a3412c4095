// Package veto holds the hard rejection rules applied to every candidate before scoring.
// A veto removes the candidate outright; it is never a penalty.
//
// Every rule treats an attribute missing on either side as "no evidence", with one
// exception: a parenthetical brand named by the incoming record must be present on the
// candidate too.
package veto

import (
	"fmt"

	"github.com/Ramsey-B/fern/pkg/aptname"
	"github.com/Ramsey-B/fern/pkg/bunji"
	"github.com/Ramsey-B/fern/pkg/models"
)

// DefaultBuildYearTolerance is the largest build-year difference that is not a veto.
const DefaultBuildYearTolerance = 3

// Kind identifies which rule fired.
type Kind string

const (
	KindBlock         Kind = "block"
	KindSeries        Kind = "series"
	KindBrand         Kind = "brand"
	KindParensBrand   Kind = "parens_brand"
	KindParensBlock   Kind = "parens_block"
	KindBuildYear     Kind = "build_year"
	KindLotMainNumber Kind = "lot_main_number"
)

// Veto is a fired rule and its human-readable reason.
type Veto struct {
	Kind   Kind   `json:"kind"`
	Reason string `json:"reason"`
}

func (v Veto) String() string {
	return v.Reason
}

// Inputs are the raw, non-name facts the rules compare.
type Inputs struct {
	APILotNumber        string
	CandidateLotAddress string
	APIBuildYear        string
	CandidateBuildYear  string
	// NameSimilarity is the 0..1 name similarity of the pair; the lot rule only runs below 1.
	NameSimilarity float64
}

// Checker runs the rules in a fixed order and stops at the first that fires.
type Checker struct {
	buildYearTolerance int
}

// NewChecker creates a checker. A negative tolerance falls back to the default.
func NewChecker(buildYearTolerance int) *Checker {
	if buildYearTolerance < 0 {
		buildYearTolerance = DefaultBuildYearTolerance
	}
	return &Checker{buildYearTolerance: buildYearTolerance}
}

// Check returns the first veto that fires for the api/candidate pair.
func (c *Checker) Check(api, candidate aptname.ProcessedName, in Inputs) (Veto, bool) {
	if v, ok := Block(api, candidate); ok {
		return v, true
	}
	if v, ok := Series(api, candidate); ok {
		return v, true
	}
	if v, ok := Brand(api, candidate); ok {
		return v, true
	}
	if v, ok := ParensBrand(api, candidate); ok {
		return v, true
	}
	if v, ok := ParensBlock(api, candidate); ok {
		return v, true
	}
	if v, ok := BuildYear(in.APIBuildYear, in.CandidateBuildYear, c.buildYearTolerance); ok {
		return v, true
	}
	return LotMainNumber(in.APILotNumber, in.CandidateLotAddress, in.NameSimilarity)
}

// Block fires when both names carry a block number and they differ.
func Block(api, candidate aptname.ProcessedName) (Veto, bool) {
	if api.Block == nil || candidate.Block == nil || *api.Block == *candidate.Block {
		return Veto{}, false
	}
	return Veto{Kind: KindBlock, Reason: fmt.Sprintf("block mismatch: %d vs %d", *api.Block, *candidate.Block)}, true
}

// Series fires when both names carry a series number and they differ.
func Series(api, candidate aptname.ProcessedName) (Veto, bool) {
	if api.Series == nil || candidate.Series == nil || *api.Series == *candidate.Series {
		return Veto{}, false
	}
	return Veto{Kind: KindSeries, Reason: fmt.Sprintf("series mismatch: %d vs %d", *api.Series, *candidate.Series)}, true
}

// Brand fires when both names resolve to a standard brand and the brands differ.
func Brand(api, candidate aptname.ProcessedName) (Veto, bool) {
	if api.Brand == nil || candidate.Brand == nil || *api.Brand == *candidate.Brand {
		return Veto{}, false
	}
	return Veto{Kind: KindBrand, Reason: fmt.Sprintf("brand mismatch: %s vs %s", *api.Brand, *candidate.Brand)}, true
}

// ParensBrand fires when the incoming name has a brand in parentheses and the candidate
// either has none there or has a different one. A candidate-only parenthetical brand
// is not a veto.
func ParensBrand(api, candidate aptname.ProcessedName) (Veto, bool) {
	if api.BrandInParens == nil {
		return Veto{}, false
	}
	if candidate.BrandInParens == nil {
		return Veto{
			Kind:   KindParensBrand,
			Reason: fmt.Sprintf("parenthetical brand mismatch: query names (%s), candidate brand in parentheses is missing", *api.BrandInParens),
		}, true
	}
	if *api.BrandInParens != *candidate.BrandInParens {
		return Veto{
			Kind:   KindParensBrand,
			Reason: fmt.Sprintf("parenthetical brand mismatch: (%s) vs (%s)", *api.BrandInParens, *candidate.BrandInParens),
		}, true
	}
	return Veto{}, false
}

// ParensBlock fires when both names carry a block number in parentheses and they differ.
func ParensBlock(api, candidate aptname.ProcessedName) (Veto, bool) {
	if api.BlockInParens == nil || candidate.BlockInParens == nil || *api.BlockInParens == *candidate.BlockInParens {
		return Veto{}, false
	}
	return Veto{
		Kind:   KindParensBlock,
		Reason: fmt.Sprintf("parenthetical block mismatch: (%d) vs (%d)", *api.BlockInParens, *candidate.BlockInParens),
	}, true
}

// BuildYear fires when both years parse and differ by more than tolerance.
func BuildYear(apiYear, candidateYear string, tolerance int) (Veto, bool) {
	a, okA := models.ParseBuildYear(apiYear)
	b, okB := models.ParseBuildYear(candidateYear)
	if !okA || !okB {
		return Veto{}, false
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	if diff <= tolerance {
		return Veto{}, false
	}
	return Veto{Kind: KindBuildYear, Reason: fmt.Sprintf("build year mismatch: %d vs %d", a, b)}, true
}

// LotMainNumber fires when the lot main numbers of the record and of the candidate
// address differ. An exact name match (similarity 1) bypasses the rule.
func LotMainNumber(apiLot, candidateLotAddress string, nameSimilarity float64) (Veto, bool) {
	if nameSimilarity >= 1.0 {
		return Veto{}, false
	}
	a := bunji.Normalize(apiLot)
	b := bunji.FromAddress(candidateLotAddress)
	if !a.HasMain() || !b.HasMain() || a.Main == b.Main {
		return Veto{}, false
	}
	return Veto{Kind: KindLotMainNumber, Reason: fmt.Sprintf("lot main number mismatch: %s vs %s", a.Main, b.Main)}, true
}
