package aptname

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Brand is the standardized name of an apartment builder brand.
type Brand string

type brandEntry struct {
	keyword string
	brand   Brand
}

// brandSpellings lists every spelling seen in feeds (lowercased and transliterated)
// per standard brand. Older corporate names map to the brand that replaced them.
var brandSpellings = []struct {
	brand     Brand
	spellings []string
}{
	{"래미안", []string{"래미안", "삼성래미안", "삼성"}},
	{"힐스테이트", []string{"힐스테이트", "현대힐스테이트"}},
	{"디에이치", []string{"디에이치"}},
	{"현대", []string{"현대"}},
	{"아이파크", []string{"아이파크", "현대아이파크", "현대산업"}},
	{"자이", []string{"자이", "gs자이", "엘지", "lg"}},
	{"푸르지오", []string{"푸르지오", "대우"}},
	{"e편한세상", []string{"e편한세상", "이편한세상", "대림"}},
	{"아크로", []string{"아크로"}},
	{"롯데캐슬", []string{"롯데캐슬", "롯데"}},
	{"더샵", []string{"더샵", "포스코"}},
	{"sk뷰", []string{"sk뷰", "에스케이뷰", "sk"}},
	{"센트레빌", []string{"센트레빌", "동부"}},
	{"위브", []string{"위브", "두산위브", "두산"}},
	{"꿈에그린", []string{"꿈에그린", "한화"}},
	{"호반", []string{"호반써밋", "호반베르디움", "베르디움", "호반"}},
	{"중흥", []string{"중흥s클래스", "중흥"}},
	{"데시앙", []string{"데시앙", "태영"}},
	{"하늘채", []string{"하늘채", "코오롱"}},
	{"스위첸", []string{"스위첸", "kcc"}},
	{"리슈빌", []string{"리슈빌", "계룡"}},
	{"수자인", []string{"수자인", "한양"}},
	{"어울림", []string{"어울림", "금호"}},
	{"lh", []string{"휴먼시아", "lh", "주공"}},
	{"부영", []string{"부영", "사랑으로"}},
	{"우미린", []string{"우미린", "우미"}},
	{"유보라", []string{"유보라", "반도"}},
	{"서희스타힐스", []string{"서희스타힐스", "서희"}},
	{"풍경채", []string{"풍경채"}},
	{"해링턴", []string{"해링턴", "효성"}},
	{"쌍용", []string{"스윗닷홈", "더플래티넘", "예가", "쌍용"}},
	{"우방", []string{"우방아이유쉘", "아이유쉘", "우방"}},
	{"한신", []string{"한신휴", "한신"}},
	{"우성", []string{"우성"}},
	{"벽산", []string{"블루밍", "벽산"}},
	{"신동아", []string{"파밀리에", "신동아"}},
	{"동아", []string{"동아"}},
	{"극동", []string{"스타클래스", "극동"}},
	{"삼익", []string{"삼익"}},
	{"럭키", []string{"럭키"}},
	{"한진", []string{"해모로", "한진"}},
	{"경남", []string{"아너스빌", "경남"}},
	{"코아루", []string{"코아루"}},
	{"모아", []string{"모아엘가"}},
	{"풍림", []string{"아이원", "풍림"}},
	{"임광", []string{"임광"}},
	{"진흥", []string{"진흥"}},
	{"삼환", []string{"삼환"}},
	{"동문", []string{"굿모닝힐", "동문"}},
	{"대방", []string{"노블랜드", "디엠시티", "대방"}},
}

// brandTable is every spelling sorted by descending keyword length so the longest
// spelling wins ("현대아이파크" before "현대"). Ties sort by keyword for determinism.
var brandTable = buildBrandTable()

func buildBrandTable() []brandEntry {
	var table []brandEntry
	for _, group := range brandSpellings {
		for _, k := range group.spellings {
			table = append(table, brandEntry{keyword: k, brand: group.brand})
		}
	}
	sort.Slice(table, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(table[i].keyword), utf8.RuneCountInString(table[j].keyword)
		if li != lj {
			return li > lj
		}
		return table[i].keyword < table[j].keyword
	})
	return table
}

// LookupBrand returns the standard brand of the longest keyword contained in text.
// text is expected in compact form (lowercase, transliterated, no spaces).
func LookupBrand(text string) (Brand, bool) {
	if text == "" {
		return "", false
	}
	for _, e := range brandTable {
		if keywordIndex(text, e.keyword, 0) >= 0 {
			return e.brand, true
		}
	}
	return "", false
}

// RemoveBrandKeywords deletes every brand keyword occurrence, longest first.
func RemoveBrandKeywords(text string) string {
	for _, e := range brandTable {
		if text == "" {
			return text
		}
		text = removeKeyword(text, e.keyword)
	}
	return text
}

// keywordIndex finds keyword in text at or after from. A keyword that starts or ends with
// a Latin letter only matches where the neighboring byte is not a Latin letter, so "sk"
// is found in "sk뷰" and "sk2단지" but not in "skyview".
func keywordIndex(text, keyword string, from int) int {
	for from <= len(text) {
		i := strings.Index(text[from:], keyword)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(keyword)
		if (!isLatin(keyword[0]) || i == 0 || !isLatin(text[i-1])) &&
			(!isLatin(keyword[len(keyword)-1]) || end == len(text) || !isLatin(text[end])) {
			return i
		}
		from = i + 1
	}
	return -1
}

func removeKeyword(text, keyword string) string {
	var b strings.Builder
	from := 0
	for {
		i := keywordIndex(text, keyword, from)
		if i < 0 {
			break
		}
		b.WriteString(text[from:i])
		from = i + len(keyword)
	}
	if from == 0 {
		return text
	}
	b.WriteString(text[from:])
	return b.String()
}

func isLatin(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

type transliteration struct {
	pattern *regexp.Regexp
	native  string
}

// transliterations rewrite English brand spellings into Hangul. They run on lowercased
// text, in order, before punctuation is stripped (so "the#" still has its '#').
var transliterations = []transliteration{
	{regexp.MustCompile(`e\s*-?\s*편한\s*세상`), "e편한세상"},
	{regexp.MustCompile(`이\s*-\s*편한\s*세상`), "e편한세상"},
	{regexp.MustCompile(`gs\s*xi`), "gs자이"},
	{regexp.MustCompile(`\bxi\b`), "자이"},
	{regexp.MustCompile(`\bi\s*-?\s*park\b`), "아이파크"},
	{regexp.MustCompile(`\bhill\s*state\b`), "힐스테이트"},
	{regexp.MustCompile(`\bprugio\b`), "푸르지오"},
	{regexp.MustCompile(`\braemian\b`), "래미안"},
	{regexp.MustCompile(`\bthe\s*sharp\b`), "더샵"},
	{regexp.MustCompile(`(\bthe|더)\s*#`), "더샵"},
	{regexp.MustCompile(`\blotte\s*castle\b`), "롯데캐슬"},
	{regexp.MustCompile(`\bsk\s*view\b`), "sk뷰"},
	{regexp.MustCompile(`\bcentre\s*ville\b`), "센트레빌"},
	{regexp.MustCompile(`\bwe'?ve\b`), "위브"},
	{regexp.MustCompile(`\bacro\b`), "아크로"},
	{regexp.MustCompile(`\bthe\s*h\b`), "디에이치"},
	{regexp.MustCompile(`\bs\s*-\s*(class\b|클래스)`), "s클래스"},
}

// Transliterate rewrites English brand tokens in lowercased text into their Hangul form.
func Transliterate(lower string) string {
	for _, t := range transliterations {
		lower = t.pattern.ReplaceAllString(lower, t.native)
	}
	return lower
}
