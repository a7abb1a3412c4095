package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestAddressMatch(t *testing.T) {
	candidates := []models.CandidateApartment{
		{ApartmentID: 1, AptName: "한빛"},
		{ApartmentID: 2, AptName: "대치 우성"},
		{ApartmentID: 3, AptName: "은마"},
		{ApartmentID: 4, AptName: "상세 없음"},
	}
	details := map[int64]models.DetailRecord{
		1: {ApartmentID: 1, LotAddress: "서울특별시 강남구 대치동 316-2", BuildYear: "1998"},
		2: {ApartmentID: 2, LotAddress: "서울특별시 강남구 대치동 316-3", BuildYear: "1998"},
		3: {ApartmentID: 3, LotAddress: "서울특별시 강남구 대치동 316", BuildYear: "1979"},
	}

	tests := []struct {
		name      string
		lot       string
		year      string
		cands     []models.CandidateApartment
		want      Status
		wantID    int64
		wantCount int
	}{
		{name: "unique by sub number and year", lot: "316-2", year: "1998", cands: candidates[:2], want: StatusMatched, wantID: 1, wantCount: 1},
		{name: "missing sub accepts either sub", lot: "316", year: "1998", cands: candidates[:2], want: StatusAmbiguous, wantCount: 2},
		{name: "candidate without sub accepted", lot: "316-9", year: "", cands: candidates[2:], want: StatusMatched, wantID: 3, wantCount: 1},
		{name: "year outside window", lot: "316", year: "1990", cands: candidates[2:3], want: StatusNoCandidates},
		{name: "no detail is never a survivor", lot: "316", year: "", cands: candidates[3:], want: StatusNoCandidates},
		{name: "different main number", lot: "317-2", year: "1998", cands: candidates, want: StatusNoCandidates},
	}

	m := NewAddressMatcher(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := m.Match(tt.lot, tt.year, tt.cands, details)
			require.Equal(t, tt.want, result.Status(), ToRecord(result).Reason)

			rec := ToRecord(result)
			assert.Equal(t, tt.wantCount, rec.FilteredCount)
			if tt.want == StatusMatched {
				require.NotNil(t, rec.ApartmentID)
				assert.Equal(t, tt.wantID, *rec.ApartmentID)
				assert.Equal(t, AddressMatchScore, rec.Score)
			} else {
				assert.False(t, rec.Matched)
			}
		})
	}
}

func TestAddressMatch_SharedLotIsAmbiguous(t *testing.T) {
	candidates := []models.CandidateApartment{
		{ApartmentID: 1, AptName: "한빛 1차"},
		{ApartmentID: 2, AptName: "한빛 2차"},
	}
	details := map[int64]models.DetailRecord{
		1: {ApartmentID: 1, LotAddress: "대치동 316-2", BuildYear: "1998"},
		2: {ApartmentID: 2, LotAddress: "대치동 316-2", BuildYear: "1999"},
	}
	m := NewAddressMatcher(DefaultConfig())

	// each alone is a match
	for _, c := range candidates {
		assert.Equal(t, StatusMatched, m.Match("316-2", "1998", []models.CandidateApartment{c}, details).Status())
	}

	result := m.Match("316-2", "1998", candidates, details)
	assert.IsType(t, Ambiguous{}, result)
	rec := ToRecord(result)
	assert.False(t, rec.Matched)
	assert.Contains(t, rec.Reason, "ambiguous")
	assert.Equal(t, []string{"한빛 1차", "한빛 2차"}, rec.CandidateNames)
}

func TestAddressMatch_Reasons(t *testing.T) {
	m := NewAddressMatcher(DefaultConfig())

	result := m.Match("", "1998", []models.CandidateApartment{{ApartmentID: 1, AptName: "한빛"}}, nil)
	assert.IsType(t, NoInput{}, result)

	result = m.Match("316-2", "", []models.CandidateApartment{{ApartmentID: 1, AptName: "한빛"}}, nil)
	assert.IsType(t, NoCandidates{}, result)
	assert.Contains(t, ToRecord(result).Reason, "no candidate")
}
