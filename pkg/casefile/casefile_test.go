package casefile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/aptname"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/namecache"
)

const daechiCases = `
name: daechi
description: regression cases for 대치동
cases:
  - name: identical record
    query:
      api_name: 래미안 2단지 1차
      region_code: "11680"
      lot_number: 316-2
      build_year: "1998"
    candidates:
      - id: 7
        name: 래미안 2단지 1차
        lot_address: 서울특별시 강남구 대치동 316-2
        build_year: "1998"
    expect:
      status: matched
      apartment_id: 7
  - name: block mismatch everywhere
    query:
      api_name: 래미안 2단지
    candidates:
      - id: 1
        name: 래미안 3단지
      - id: 2
        name: 푸르지오
    expect:
      status: vetoed
  - name: nameless record
    query:
      lot_number: 316-2
    candidates:
      - id: 1
        name: 대치 아파트
        lot_address: 대치동 316-2
      - id: 2
        name: 은마
        lot_address: 대치동 12
    expect:
      apartment_id: 1
  - query:
      api_name: 래미안
`

func newTestRunner() *Runner {
	names := aptname.NewProcessor(namecache.MustNew[aptname.ProcessedName](0))
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewRunner(matching.NewMatcher(names, matching.DefaultConfig()), matching.NewAddressMatcher(matching.DefaultConfig()), logger)
}

func TestParse(t *testing.T) {
	file, err := Parse([]byte(daechiCases))
	require.NoError(t, err)

	assert.Equal(t, "daechi", file.Name)
	require.Len(t, file.Cases, 4)

	first := file.Cases[0]
	assert.Equal(t, "identical record", first.Name)
	assert.Equal(t, "11680", first.Query.RegionCode)
	require.Len(t, first.Candidates, 1)
	assert.Equal(t, int64(7), first.Candidates[0].ID)
	require.NotNil(t, first.Expect)
	assert.Equal(t, matching.StatusMatched, first.Expect.Status)
	require.NotNil(t, first.Expect.ApartmentID)
	assert.Equal(t, int64(7), *first.Expect.ApartmentID)

	assert.Equal(t, "case 4", file.Cases[3].Name)
	assert.Nil(t, file.Cases[3].Expect)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("cases: [unterminated"))
	assert.Error(t, err)

	_, err = Parse([]byte("cases:\n  - name: odd\n    path: geocode\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geocode")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daechi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(daechiCases), 0o600))

	file, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, file.displayName())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	file, err := Parse([]byte(daechiCases))
	require.NoError(t, err)

	report, err := newTestRunner().Run(context.Background(), []*File{file}, 2)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 3, report.Passed)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 1, report.Unchecked)
	require.Len(t, report.Results, 4)

	assert.Equal(t, "identical record", report.Results[0].Name)
	assert.Equal(t, PathName, report.Results[0].Path)
	assert.Equal(t, 100.0, report.Results[0].Result.Score)

	nameless := report.Results[2]
	assert.Equal(t, PathAddress, nameless.Path)
	assert.Equal(t, matching.StatusMatched, nameless.Result.Status)

	assert.Equal(t, matching.StatusNoCandidates, report.Results[3].Result.Status)
	assert.Nil(t, report.Results[3].Passed)
	assert.Empty(t, report.Failures())
}

func TestRun_ReportsFailures(t *testing.T) {
	id := int64(2)
	file := &File{Name: "inline", Cases: []Case{
		{
			Name:       "wrong expectation",
			Query:      Query{APIName: "래미안 2단지"},
			Candidates: []Candidate{{ID: 1, Name: "래미안 3단지"}},
			Expect:     &Expect{Status: matching.StatusMatched},
		},
		{
			Name:       "wrong apartment",
			Path:       PathAddress,
			Query:      Query{LotNumber: "316-2"},
			Candidates: []Candidate{{ID: 1, Name: "대치 아파트", LotAddress: "대치동 316-2"}},
			Expect:     &Expect{ApartmentID: &id},
		},
	}}

	report, err := newTestRunner().Run(context.Background(), []*File{file}, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Failed)
	failures := report.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, "wrong apartment", failures[0].Name)
	assert.Contains(t, failures[0].Failure, "expected apartment 2, got 1")
	assert.Equal(t, "wrong expectation", failures[1].Name)
	assert.Contains(t, failures[1].Failure, "expected status matched, got vetoed")
}

func TestRun_CanceledContext(t *testing.T) {
	file, err := Parse([]byte(daechiCases))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = newTestRunner().Run(ctx, []*File{file}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
