// Package bunji parses Korean lot numbers ("bunji", main-sub) and scores how well two of them agree.
package bunji

import (
	"regexp"
	"strings"

	"github.com/Ramsey-B/fern/pkg/numerals"
)

const (
	// FullMatchScore is awarded when both main and sub numbers agree.
	FullMatchScore = 40.0
	// MainMatchScore is awarded when only the main numbers agree.
	MainMatchScore = 20.0
)

// Number is a normalized lot number. An empty field means the value is unknown.
type Number struct {
	Main string `json:"main,omitempty"`
	Sub  string `json:"sub,omitempty"`
}

// HasMain reports whether the main (bonbun) number is known.
func (n Number) HasMain() bool { return n.Main != "" }

// HasSub reports whether the sub (bubun) number is known.
func (n Number) HasSub() bool { return n.Sub != "" }

// String renders the number as main-sub, or main alone.
func (n Number) String() string {
	if n.Sub == "" {
		return n.Main
	}
	return n.Main + "-" + n.Sub
}

var (
	digitRun      = regexp.MustCompile(`\d+`)
	districtMark  = regexp.MustCompile(`(?i)(지구|블록|블럭|bl|롯트|로트)`)
	lotToken      = regexp.MustCompile(`^\d+(?:-\d+)*$`)
	lotSuffixes   = []string{"번지", "번"}
	mountainMarks = []string{"산"}
	hyphens       = strings.NewReplacer("－", "-", "‐", "-", "–", "-", "—", "-")
)

// Normalize parses a raw lot number. Rules are applied in order:
//  1. whitespace and a leading 산 (mountain lot) marker are removed
//  2. district/block labels ("12블록 3롯트") yield the first and second digit runs
//  3. with two or more hyphens the string splits on the first hyphen and only the
//     second segment is kept as sub ("2745-2-1" is 2745-2); later segments are dropped
//  4. a single hyphen splits into main and sub
//  5. otherwise the whole string is the main number
//
// Leading zeros are stripped; a segment without digits or made only of zeros is unknown.
func Normalize(raw string) Number {
	s := strings.Join(strings.Fields(hyphens.Replace(numerals.FullWidth(raw))), "")
	for _, m := range mountainMarks {
		s = strings.TrimPrefix(s, m)
	}
	for _, suf := range lotSuffixes {
		s = strings.TrimSuffix(s, suf)
	}
	if s == "" {
		return Number{}
	}

	if districtMark.MatchString(s) {
		runs := digitRun.FindAllString(s, 2)
		switch len(runs) {
		case 0:
		case 1:
			return Number{Main: trimZeros(runs[0])}
		default:
			return Number{Main: trimZeros(runs[0]), Sub: trimZeros(runs[1])}
		}
	}

	parts := strings.Split(s, "-")
	if len(parts) >= 2 {
		// parts[2:] refine the sub number and are not kept.
		return Number{Main: segment(parts[0]), Sub: segment(parts[1])}
	}
	return Number{Main: segment(s)}
}

// FromAddress extracts the lot number from a full lot address such as
// "서울특별시 강남구 대치동 316-2". The last whitespace token shaped like a lot number wins.
func FromAddress(address string) Number {
	tokens := strings.Fields(hyphens.Replace(numerals.FullWidth(address)))
	for i := len(tokens) - 1; i >= 0; i-- {
		tok := tokens[i]
		for _, m := range mountainMarks {
			tok = strings.TrimPrefix(tok, m)
		}
		for _, suf := range lotSuffixes {
			tok = strings.TrimSuffix(tok, suf)
		}
		if lotToken.MatchString(tok) {
			return Normalize(tok)
		}
	}
	return Number{}
}

// MatchScore scores two lot numbers:
//   - 0 when either main number is unknown or the main numbers differ
//   - 40 when main and sub are known on both sides and equal
//   - 20 otherwise; a sub mismatch only drops the score, it is not penalized further
func MatchScore(a, b Number) float64 {
	if !a.HasMain() || !b.HasMain() || a.Main != b.Main {
		return 0
	}
	if a.HasSub() && b.HasSub() && a.Sub == b.Sub {
		return FullMatchScore
	}
	return MainMatchScore
}

// segment returns the digits of one hyphen segment without leading zeros.
func segment(s string) string {
	run := digitRun.FindString(s)
	return trimZeros(run)
}

func trimZeros(s string) string {
	return strings.TrimLeft(s, "0")
}
