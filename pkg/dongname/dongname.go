// Package dongname derives the candidate spellings of an administrative neighborhood
// (dong/eup/myeon/ri) name used to look up a region code.
package dongname

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/Ramsey-B/fern/pkg/namecache"
	"github.com/Ramsey-B/fern/pkg/numerals"
)

// AdminSuffixes are the administrative unit markers stripped from the end of a name.
var AdminSuffixes = []string{"읍", "면", "동", "리", "가"}

// minStrippedRunes keeps suffix stripping from reducing a name to a single syllable,
// which would make containment checks match almost anything.
const minStrippedRunes = 2

// Processor extracts candidate forms and memoizes them per raw name.
type Processor struct {
	cache *namecache.Cache[[]string]
}

// NewProcessor creates a processor. A nil cache disables memoization.
func NewProcessor(cache *namecache.Cache[[]string]) *Processor {
	return &Processor{cache: cache}
}

// Candidates returns the ordered, de-duplicated candidate forms of raw:
// the trimmed string, its last token, its first token, each of those with digits
// removed, then each form so far with one administrative suffix removed.
// The returned slice is shared with the cache and must not be modified.
func (p *Processor) Candidates(raw string) []string {
	return p.cache.GetOrCompute(raw, Extract)
}

// Extract computes the candidate forms without caching.
func Extract(raw string) []string {
	full := strings.Join(strings.Fields(norm.NFC.String(numerals.FullWidth(raw))), " ")
	if full == "" {
		return nil
	}

	out := newOrderedSet()

	tokens := strings.Fields(full)
	base := []string{full, tokens[len(tokens)-1], tokens[0]}
	for _, s := range base {
		out.add(s)
	}
	for _, s := range base {
		out.add(stripDigits(s))
	}
	for _, s := range out.values() {
		out.add(stripSuffix(s))
	}

	return out.values()
}

func stripDigits(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, s))
}

func stripSuffix(s string) string {
	for _, suf := range AdminSuffixes {
		if !strings.HasSuffix(s, suf) {
			continue
		}
		trimmed := strings.TrimSpace(strings.TrimSuffix(s, suf))
		if utf8.RuneCountInString(trimmed) < minStrippedRunes {
			return ""
		}
		return trimmed
	}
	return ""
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (o *orderedSet) add(s string) {
	if s == "" {
		return
	}
	if _, ok := o.seen[s]; ok {
		return
	}
	o.seen[s] = struct{}{}
	o.items = append(o.items, s)
}

// values returns a snapshot so callers may keep adding while ranging.
func (o *orderedSet) values() []string {
	return append([]string(nil), o.items...)
}
