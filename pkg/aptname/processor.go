// Package aptname cleans, normalizes and extracts structural features from apartment
// complex names as they appear in transaction feeds and in the apartment catalog.
package aptname

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/Ramsey-B/fern/pkg/namecache"
	"github.com/Ramsey-B/fern/pkg/numerals"
)

// ProcessedName is the derived, immutable view of one raw apartment name.
// Pointer fields are nil when the feature is absent. Values may be shared through the
// cache and must not be modified.
type ProcessedName struct {
	Original         string  `json:"original"`
	Cleaned          string  `json:"cleaned"`
	Normalized       string  `json:"normalized"`
	NormalizedStrict string  `json:"normalized_strict"`
	Block            *int    `json:"block,omitempty"`
	Series           *int    `json:"series,omitempty"`
	Brand            *Brand  `json:"brand,omitempty"`
	BrandInParens    *Brand  `json:"brand_in_parens,omitempty"`
	BlockInParens    *int    `json:"block_in_parens,omitempty"`
	Core             string  `json:"core"`
	Village          *string `json:"village,omitempty"`
}

// IsEmpty reports whether nothing usable survived normalization.
func (p ProcessedName) IsEmpty() bool {
	return p.Normalized == ""
}

// TrailingSuffixes are generic building-type words; one of them is removed from the end
// of the normalized forms.
var TrailingSuffixes = []string{"아파트", "apt", "주상복합"}

var (
	boilerplateSuffix = regexp.MustCompile(`\s*(입주자\s*대표\s*회의?|관리\s*사무소|관리소|관리단)\s*$`)
	punctuationRun    = regexp.MustCompile(`[^\p{L}\p{N}()\[\]\s]+`)
	whitespaceRun     = regexp.MustCompile(`\s+`)
	bracketed         = regexp.MustCompile(`\([^()]*\)|\[[^\[\]]*\]`)
	firstParens       = regexp.MustCompile(`[(\[]([^()\[\]]*)[)\]]`)
	blockPattern      = regexp.MustCompile(`(\d+)\s*(?:단지|블록|블럭|bl)`)
	seriesPattern     = regexp.MustCompile(`(\d+)\s*차`)
	villageSuffixed   = regexp.MustCompile(`[가-힣]+(?:마을|타운|빌리지)`)
	villageBeforeBlk  = regexp.MustCompile(`([가-힣a-z]+)\s*\d+\s*단지`)

	bracketWidth = strings.NewReplacer("（", "(", "）", ")", "［", "[", "］", "]", "【", "[", "】", "]")
)

// Processor turns raw names into ProcessedName values, memoized by exact input.
type Processor struct {
	cache *namecache.Cache[ProcessedName]
}

// NewProcessor creates a processor backed by cache. A nil cache disables memoization.
func NewProcessor(cache *namecache.Cache[ProcessedName]) *Processor {
	return &Processor{cache: cache}
}

// Process returns the processed form of name. It never fails; empty input yields a
// ProcessedName with only Original set.
func (p *Processor) Process(name string) ProcessedName {
	return p.cache.GetOrCompute(name, Process)
}

// CacheLen returns the number of memoized names.
func (p *Processor) CacheLen() int {
	return p.cache.Len()
}

// Process runs the full pipeline without caching.
func Process(name string) ProcessedName {
	result := ProcessedName{Original: name}

	prepared := bracketWidth.Replace(norm.NFC.String(strings.TrimSpace(name)))
	if prepared == "" {
		return result
	}

	result.Cleaned = Clean(prepared)

	// Structural features read the numeral-normalized, transliterated text so that
	// "Ⅱ차", "이차" and "2차" agree.
	features := featureText(stripBoilerplate(prepared))
	outside := bracketed.ReplaceAllString(features, " ")

	result.Block = firstInt(blockPattern, features)
	result.Series = firstInt(seriesPattern, features)
	if b, ok := LookupBrand(compact(outside)); ok {
		result.Brand = &b
	}

	if m := firstParens.FindStringSubmatch(features); m != nil {
		if b, ok := LookupBrand(compact(m[1])); ok {
			result.BrandInParens = &b
		}
		result.BlockInParens = firstInt(blockPattern, m[1])
	}

	result.Village = extractVillage(outside)

	result.Normalized = stripTrailingSuffix(compact(outside))
	result.NormalizedStrict = stripTrailingSuffix(stripBlockAndSeries(result.Normalized))
	result.Core = stripTrailingSuffix(stripBlockAndSeries(RemoveBrandKeywords(result.Normalized)))

	return result
}

// Clean removes boilerplate suffixes ("입주자대표회의", "관리사무소") and collapses
// punctuation runs into single spaces. Parentheses and brackets are kept.
func Clean(name string) string {
	s := punctuationRun.ReplaceAllString(stripBoilerplate(name), " ")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func stripBoilerplate(name string) string {
	s := strings.TrimSpace(name)
	for {
		stripped := boilerplateSuffix.ReplaceAllString(s, "")
		if stripped == s {
			return s
		}
		s = stripped
	}
}

// featureText lowercases, transliterates English brand spellings and folds numerals.
// Punctuation is still present so "더#" can be recognized.
func featureText(s string) string {
	return numerals.Normalize(Transliterate(strings.ToLower(s)))
}

// compact keeps letters and digits only.
func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func stripBlockAndSeries(s string) string {
	s = blockPattern.ReplaceAllString(s, "")
	return seriesPattern.ReplaceAllString(s, "")
}

func stripTrailingSuffix(s string) string {
	for _, suf := range TrailingSuffixes {
		if strings.HasSuffix(s, suf) {
			return strings.TrimSuffix(s, suf)
		}
	}
	return s
}

func firstInt(re *regexp.Regexp, s string) *int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// extractVillage prefers an explicit "~마을/타운/빌리지" token and otherwise takes the
// word in front of "N단지" unless that word is only a brand.
func extractVillage(s string) *string {
	if v := villageSuffixed.FindString(s); v != "" {
		return &v
	}
	m := villageBeforeBlk.FindStringSubmatch(s)
	if m == nil || RemoveBrandKeywords(m[1]) == "" {
		return nil
	}
	v := m[1]
	return &v
}
