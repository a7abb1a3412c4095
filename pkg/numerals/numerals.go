// Package numerals folds the digit spellings found in apartment names and lot labels
// (full-width, Roman, native Korean number words) into ASCII digits.
package numerals

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

var fullWidthDigits = runes.In(&unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0xFF10, Hi: 0xFF19, Stride: 1}},
})

var romanReplacer = strings.NewReplacer(
	"Ⅻ", "12", "Ⅺ", "11", "Ⅹ", "10", "Ⅸ", "9", "Ⅷ", "8", "Ⅶ", "7",
	"Ⅵ", "6", "Ⅴ", "5", "Ⅳ", "4", "Ⅲ", "3", "Ⅱ", "2", "Ⅰ", "1",
	"ⅻ", "12", "ⅺ", "11", "ⅹ", "10", "ⅸ", "9", "ⅷ", "8", "ⅶ", "7",
	"ⅵ", "6", "ⅴ", "5", "ⅳ", "4", "ⅲ", "3", "ⅱ", "2", "ⅰ", "1",
)

var nativeDigits = map[string]string{
	"일": "1", "이": "2", "삼": "3", "사": "4", "오": "5",
	"육": "6", "칠": "7", "팔": "8", "구": "9", "십": "10",
}

// UnitSuffixes are the markers that make a native number word a numeral.
// 동 is excluded: 이동, 사동 and friends are neighborhood names.
var UnitSuffixes = []string{"단지", "차", "블록", "블럭"}

var nativeWordPattern = regexp.MustCompile(`([일이삼사오육칠팔구십])(` + strings.Join(UnitSuffixes, "|") + `)`)

// Normalize converts every supported numeral spelling in text into ASCII digits.
// Text that does not contain a numeral passes through unchanged.
func Normalize(text string) string {
	if text == "" {
		return text
	}
	text = FullWidth(text)
	text = romanReplacer.Replace(text)
	return NativeWords(text)
}

// FullWidth narrows full-width digits (０-９) and leaves every other rune alone.
func FullWidth(text string) string {
	// runes.If keeps per-call state, so the transformer is built per call.
	out, _, err := transform.String(runes.If(fullWidthDigits, width.Narrow, nil), text)
	if err != nil {
		return text
	}
	return out
}

// NativeWords replaces 일..십 with digits only where a unit suffix follows.
func NativeWords(text string) string {
	return nativeWordPattern.ReplaceAllStringFunc(text, func(m string) string {
		sub := nativeWordPattern.FindStringSubmatch(m)
		return nativeDigits[sub[1]] + sub[2]
	})
}
