package aptname

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/namecache"
)

func intPtr(v int) *int       { return &v }
func brandPtr(b Brand) *Brand { return &b }
func strPtr(s string) *string { return &s }

func TestProcess_Features(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ProcessedName
	}{
		{
			name: "block with brand in parentheses",
			raw:  "래미안 2단지 (현대)",
			want: ProcessedName{
				Original:         "래미안 2단지 (현대)",
				Cleaned:          "래미안 2단지 (현대)",
				Normalized:       "래미안2단지",
				NormalizedStrict: "래미안",
				Block:            intPtr(2),
				Brand:            brandPtr("래미안"),
				BrandInParens:    brandPtr("현대"),
				Core:             "",
			},
		},
		{
			name: "roman numeral series",
			raw:  "e편한세상 Ⅱ차",
			want: ProcessedName{
				Original:         "e편한세상 Ⅱ차",
				Cleaned:          "e편한세상 Ⅱ차",
				Normalized:       "e편한세상2차",
				NormalizedStrict: "e편한세상",
				Series:           intPtr(2),
				Brand:            brandPtr("e편한세상"),
				Core:             "",
			},
		},
		{
			name: "village with boilerplate suffix",
			raw:  "은행마을 삼성 3단지 아파트 관리사무소",
			want: ProcessedName{
				Original:         "은행마을 삼성 3단지 아파트 관리사무소",
				Cleaned:          "은행마을 삼성 3단지 아파트",
				Normalized:       "은행마을삼성3단지",
				NormalizedStrict: "은행마을삼성",
				Block:            intPtr(3),
				Brand:            brandPtr("래미안"),
				Core:             "은행마을",
				Village:          strPtr("은행마을"),
			},
		},
		{
			name: "english brand spelling",
			raw:  "GS Xi 아파트",
			want: ProcessedName{
				Original:         "GS Xi 아파트",
				Cleaned:          "GS Xi 아파트",
				Normalized:       "gs자이",
				NormalizedStrict: "gs자이",
				Brand:            brandPtr("자이"),
				Core:             "",
			},
		},
		{
			name: "block in parentheses",
			raw:  "힐스테이트(1단지)",
			want: ProcessedName{
				Original:         "힐스테이트(1단지)",
				Cleaned:          "힐스테이트(1단지)",
				Normalized:       "힐스테이트",
				NormalizedStrict: "힐스테이트",
				Block:            intPtr(1),
				Brand:            brandPtr("힐스테이트"),
				BlockInParens:    intPtr(1),
				Core:             "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Process(tt.raw))
		})
	}
}

func TestProcess_LongestBrandWins(t *testing.T) {
	got := Process("현대아이파크")
	require.NotNil(t, got.Brand)
	assert.Equal(t, Brand("아이파크"), *got.Brand)

	got = Process("현대")
	require.NotNil(t, got.Brand)
	assert.Equal(t, Brand("현대"), *got.Brand)
}

func TestProcess_Transliteration(t *testing.T) {
	tests := []struct {
		raw  string
		want Brand
	}{
		{"Raemian Firstige", "래미안"},
		{"I-Park 101", "아이파크"},
		{"Hill State 센트럴", "힐스테이트"},
		{"더# 센트럴", "더샵"},
		{"The Sharp 레이크", "더샵"},
		{"Lotte Castle", "롯데캐슬"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := Process(tt.raw)
			require.NotNil(t, got.Brand)
			assert.Equal(t, tt.want, *got.Brand)
		})
	}
}

func TestProcess_NativeNumeralSeries(t *testing.T) {
	got := Process("우성이차")
	require.NotNil(t, got.Series)
	assert.Equal(t, 2, *got.Series)
	assert.Equal(t, "우성2차", got.Normalized)
	assert.Equal(t, "우성", got.NormalizedStrict)
}

func TestProcess_FullWidthParentheses(t *testing.T) {
	got := Process("래미안（현대）")
	require.NotNil(t, got.BrandInParens)
	assert.Equal(t, Brand("현대"), *got.BrandInParens)
	assert.Equal(t, "래미안", got.Normalized)
}

func TestProcess_VillageBeforeBlock(t *testing.T) {
	got := Process("무지개 2단지")
	require.NotNil(t, got.Village)
	assert.Equal(t, "무지개", *got.Village)

	// a brand in front of the block number is not a village
	assert.Nil(t, Process("래미안 2단지").Village)
}

func TestProcess_Empty(t *testing.T) {
	got := Process("   ")
	assert.Equal(t, ProcessedName{Original: "   "}, got)
	assert.True(t, got.IsEmpty())
}

func TestProcess_Deterministic(t *testing.T) {
	for _, raw := range []string{"래미안 2단지 (현대)", "은행마을 삼성 3단지 아파트", "GS Xi"} {
		assert.Equal(t, Process(raw), Process(raw))
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "래미안 퍼스티지", Clean("래미안·퍼스티지!!"))
	assert.Equal(t, "삼성 (1단지)", Clean("삼성 (1단지) 입주자대표회의"))
	assert.Equal(t, "우성", Clean("우성 관리소"))
}

func TestProcessor_Caches(t *testing.T) {
	cache := namecache.MustNew[ProcessedName](8)
	p := NewProcessor(cache)

	first := p.Process("래미안 2단지")
	second := p.Process("래미안 2단지")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.CacheLen())
}

func TestRemoveBrandKeywords(t *testing.T) {
	assert.Equal(t, "센트럴", RemoveBrandKeywords("현대아이파크센트럴"))
	assert.Equal(t, "", RemoveBrandKeywords(""))
}

func TestLookupBrand_LatinKeywordsNeedBoundary(t *testing.T) {
	tests := []struct {
		text string
		want Brand
		ok   bool
	}{
		{"sk뷰", "sk뷰", true},
		{"sk2단지", "sk뷰", true},
		{"lh", "lh", true},
		{"lh3단지", "lh", true},
		{"skyview", "", false},
		{"lhasa", "", false},
		{"oldlg", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := LookupBrand(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProcess_LatinWordWithBrandPrefix(t *testing.T) {
	got := Process("skyview")
	assert.Nil(t, got.Brand)
	assert.Equal(t, "skyview", got.Core)
}

func TestRemoveBrandKeywords_LatinBoundary(t *testing.T) {
	assert.Equal(t, "skyview", RemoveBrandKeywords("skyviewsk뷰"))
	assert.Equal(t, "2단지", RemoveBrandKeywords("lh2단지"))
}
