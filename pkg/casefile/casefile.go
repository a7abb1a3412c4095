// Package casefile runs apartment matching cases described in YAML files. It needs no
// database or broker, so catalog snapshots and regression cases can be checked offline.
package casefile

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Matching paths a case can force. Empty picks the name path when the name is usable.
const (
	PathName    = "name"
	PathAddress = "address"
)

// File is one YAML case file
type File struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Cases       []Case `yaml:"cases"`

	path string
}

// Query is the transaction side of a case
type Query struct {
	APIName    string `yaml:"api_name"`
	RegionCode string `yaml:"region_code"`
	DongName   string `yaml:"dong_name"`
	LotNumber  string `yaml:"lot_number"`
	BuildYear  string `yaml:"build_year"`
}

// Candidate is a catalog apartment together with its detail row
type Candidate struct {
	ID         int64  `yaml:"id"`
	Name       string `yaml:"name"`
	LotAddress string `yaml:"lot_address"`
	BuildYear  string `yaml:"build_year"`
}

// Expect is the outcome a case asserts. Unset fields are not checked.
type Expect struct {
	Status      matching.Status `yaml:"status"`
	ApartmentID *int64          `yaml:"apartment_id"`
}

// Case is a single matching scenario
type Case struct {
	Name       string      `yaml:"name"`
	Path       string      `yaml:"path"`
	Query      Query       `yaml:"query"`
	Candidates []Candidate `yaml:"candidates"`
	Expect     *Expect     `yaml:"expect"`
}

// Parse decodes a case file and checks that every case is runnable.
func Parse(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse case file: %w", err)
	}

	for i, c := range file.Cases {
		switch c.Path {
		case "", PathName, PathAddress:
		default:
			return nil, fmt.Errorf("case %d (%s): unknown path %q", i, c.Name, c.Path)
		}
		if c.Name == "" {
			file.Cases[i].Name = fmt.Sprintf("case %d", i+1)
		}
	}
	return &file, nil
}

// Load reads and parses the case file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}
	file, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	file.path = path
	return file, nil
}

// CaseResult is the outcome of one case. Passed is nil when the case asserts nothing.
type CaseResult struct {
	File    string          `json:"file,omitempty"`
	Name    string          `json:"name"`
	Path    string          `json:"path"`
	Result  matching.Record `json:"result"`
	Passed  *bool           `json:"passed,omitempty"`
	Failure string          `json:"failure,omitempty"`
}

// Report summarizes a run
type Report struct {
	Total     int          `json:"total"`
	Passed    int          `json:"passed"`
	Failed    int          `json:"failed"`
	Unchecked int          `json:"unchecked"`
	Results   []CaseResult `json:"results"`
}

// Runner evaluates cases with a shared matcher
type Runner struct {
	matcher *matching.Matcher
	address *matching.AddressMatcher
	logger  ectologger.Logger
}

// NewRunner creates a new case runner
func NewRunner(matcher *matching.Matcher, address *matching.AddressMatcher, logger ectologger.Logger) *Runner {
	return &Runner{
		matcher: matcher,
		address: address,
		logger:  logger,
	}
}

// Run evaluates every case of files. parallel bounds the cases evaluated at once; 0 runs
// them one after another. Results keep file and case order.
func (r *Runner) Run(ctx context.Context, files []*File, parallel int) (Report, error) {
	type job struct {
		index int
		file  *File
		c     Case
	}

	var jobs []job
	for _, f := range files {
		for _, c := range f.Cases {
			jobs = append(jobs, job{index: len(jobs), file: f, c: c})
		}
	}

	results := make([]CaseResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	if parallel <= 0 {
		parallel = 1
	}
	g.SetLimit(parallel)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := r.runCase(j.c)
			res.File = j.file.displayName()
			results[j.index] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{Total: len(results), Results: results}
	for _, res := range results {
		switch {
		case res.Passed == nil:
			report.Unchecked++
		case *res.Passed:
			report.Passed++
		default:
			report.Failed++
			r.logger.WithContext(ctx).WithFields(map[string]any{
				"file": res.File,
				"case": res.Name,
			}).Warn(res.Failure)
		}
	}
	return report, nil
}

func (r *Runner) runCase(c Case) CaseResult {
	candidates := ectolinq.Map(c.Candidates, func(cand Candidate) models.CandidateApartment {
		return models.CandidateApartment{ApartmentID: cand.ID, AptName: cand.Name}
	})
	details := make(map[int64]models.DetailRecord, len(c.Candidates))
	for _, cand := range c.Candidates {
		details[cand.ID] = models.DetailRecord{ApartmentID: cand.ID, LotAddress: cand.LotAddress, BuildYear: cand.BuildYear}
	}

	path := c.Path
	if path == "" {
		path = PathAddress
		if r.matcher.HasUsableName(c.Query.APIName) {
			path = PathName
		}
	}

	var result matching.Result
	if path == PathName {
		result = r.matcher.Match(matching.Query{
			APIName:    c.Query.APIName,
			RegionCode: c.Query.RegionCode,
			DongName:   c.Query.DongName,
			LotNumber:  c.Query.LotNumber,
			BuildYear:  c.Query.BuildYear,
		}, candidates, details)
	} else {
		result = r.address.Match(c.Query.LotNumber, c.Query.BuildYear, candidates, details)
	}

	res := CaseResult{Name: c.Name, Path: path, Result: matching.ToRecord(result)}
	if c.Expect != nil {
		failure := c.Expect.check(res.Result)
		passed := failure == ""
		res.Passed = &passed
		res.Failure = failure
	}
	return res
}

func (e Expect) check(rec matching.Record) string {
	if e.Status != "" && e.Status != rec.Status {
		return fmt.Sprintf("expected status %s, got %s (%s)", e.Status, rec.Status, rec.Reason)
	}
	if e.ApartmentID != nil {
		if rec.ApartmentID == nil {
			return fmt.Sprintf("expected apartment %d, got none (%s)", *e.ApartmentID, rec.Reason)
		}
		if *rec.ApartmentID != *e.ApartmentID {
			return fmt.Sprintf("expected apartment %d, got %d", *e.ApartmentID, *rec.ApartmentID)
		}
	}
	return ""
}

func (f *File) displayName() string {
	if f.path != "" {
		return f.path
	}
	return f.Name
}

// Failures returns the failed cases ordered by file and name.
func (r Report) Failures() []CaseResult {
	failed := ectolinq.Filter(r.Results, func(res CaseResult) bool {
		return res.Passed != nil && !*res.Passed
	})
	sort.SliceStable(failed, func(i, j int) bool {
		if failed[i].File != failed[j].File {
			return failed[i].File < failed[j].File
		}
		return failed[i].Name < failed[j].Name
	})
	return failed
}
