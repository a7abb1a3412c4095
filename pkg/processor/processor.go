// Package processor attributes incoming transaction records to catalog apartments.
// It wires the pure matching core to its collaborators: region lookup, candidate and
// detail fetch, write-back and outcome events.
package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/appctx"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Matching paths, used as metric labels and in outcome events.
const (
	PathName    = "name"
	PathAddress = "address"
)

// CandidateSource returns the catalog apartments of a region.
type CandidateSource interface {
	FetchCandidates(ctx context.Context, regionCode string) ([]models.CandidateApartment, error)
}

// DetailSource returns detail rows keyed by apartment id.
type DetailSource interface {
	FetchDetails(ctx context.Context, ids []int64) (map[int64]models.DetailRecord, error)
}

// RegionResolver maps a sigungu code and dong name to a region code, "" when unknown.
type RegionResolver interface {
	Resolve(ctx context.Context, sigunguCode, dongName string) (string, error)
}

// TransactionStore persists records and their outcomes.
type TransactionStore interface {
	Upsert(ctx context.Context, record models.TransactionRecord) error
	RecordOutcome(ctx context.Context, id string, outcome matching.Record) error
	ListUnmatched(ctx context.Context, regionCode string, limit int) ([]models.TransactionRecord, error)
}

// EventPublisher emits outcome events.
type EventPublisher interface {
	PublishOutcomes(ctx context.Context, events []*kafka.OutcomeEvent) error
}

// RegionLocker serializes work on a region across instances.
type RegionLocker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// Dependencies are the collaborators of a Processor. Events and Locker are optional.
type Dependencies struct {
	Candidates   CandidateSource
	Details      DetailSource
	Regions      RegionResolver
	Transactions TransactionStore
	Events       EventPublisher
	Locker       RegionLocker
}

// Processor runs the attribution pipeline for single records and batches.
type Processor struct {
	deps    Dependencies
	matcher *matching.Matcher
	address *matching.AddressMatcher
	config  Config
	logger  ectologger.Logger
}

// NewProcessor creates a new Processor
func NewProcessor(deps Dependencies, matcher *matching.Matcher, address *matching.AddressMatcher, config Config, logger ectologger.Logger) *Processor {
	return &Processor{
		deps:    deps,
		matcher: matcher,
		address: address,
		config:  config.withDefaults(),
		logger:  logger,
	}
}

// Outcome is the result of attributing one record.
type Outcome struct {
	RegionCode string
	Path       string
	Result     matching.Result
}

// Handle is the kafka.MessageHandler for transaction messages.
func (p *Processor) Handle(ctx context.Context, msg *kafka.IncomingMessage) error {
	if msg.Transaction == nil {
		return fmt.Errorf("message at offset %d carries no transaction", msg.Offset)
	}
	_, err := p.Process(ctx, *msg.Transaction)
	return err
}

// Process stores record, attributes it, writes the outcome back and publishes it.
func (p *Processor) Process(ctx context.Context, record models.TransactionRecord) (Outcome, error) {
	ctx, span := tracing.StartSpan(ctx, "processor.Process")
	defer span.End()

	ctx = appctx.SetTransactionID(ctx, record.ID)

	regionCode, err := p.regionCode(ctx, record)
	if err != nil {
		return Outcome{}, err
	}
	record.RegionCode = regionCode

	if err := p.deps.Transactions.Upsert(ctx, record); err != nil {
		return Outcome{}, err
	}

	outcome, err := p.attribute(ctx, record, regionCode)
	if err != nil {
		return Outcome{}, err
	}

	flat := matching.ToRecord(outcome.Result)
	if err := p.deps.Transactions.RecordOutcome(ctx, record.ID, flat); err != nil {
		return outcome, err
	}

	if err := p.publish(ctx, []*kafka.OutcomeEvent{kafka.NewOutcomeEvent(record, outcome.Path, flat)}); err != nil {
		return outcome, err
	}

	return outcome, nil
}

// Attribute matches record against the candidates of its region without side effects
// beyond metrics. record.RegionCode is resolved from the dong name when empty.
func (p *Processor) Attribute(ctx context.Context, record models.TransactionRecord) (Outcome, error) {
	ctx, span := tracing.StartSpan(ctx, "processor.Attribute")
	defer span.End()

	regionCode, err := p.regionCode(ctx, record)
	if err != nil {
		return Outcome{}, err
	}
	return p.attribute(ctx, record, regionCode)
}

// attribute matches record against the candidates of an already resolved region code.
func (p *Processor) attribute(ctx context.Context, record models.TransactionRecord, regionCode string) (Outcome, error) {
	ctx = appctx.SetRegionCode(ctx, regionCode)

	start := time.Now()

	candidates, details, err := p.fetch(ctx, regionCode)
	if err != nil {
		return Outcome{}, err
	}

	outcome := p.match(record, regionCode, candidates, details)
	p.observe(ctx, record, outcome, time.Since(start))
	return outcome, nil
}

// regionCode returns the record's region code, resolving it when absent. An unresolved
// region yields "" and the record is matched against no candidates.
func (p *Processor) regionCode(ctx context.Context, record models.TransactionRecord) (string, error) {
	if record.RegionCode != "" || p.deps.Regions == nil {
		return record.RegionCode, nil
	}
	code, err := p.deps.Regions.Resolve(ctx, record.SigunguCode, record.DongName)
	if err != nil {
		return "", fmt.Errorf("failed to resolve region for transaction %s: %w", record.ID, err)
	}
	return code, nil
}

func (p *Processor) fetch(ctx context.Context, regionCode string) ([]models.CandidateApartment, map[int64]models.DetailRecord, error) {
	if regionCode == "" {
		return nil, nil, nil
	}

	candidates, err := p.deps.Candidates.FetchCandidates(ctx, regionCode)
	if err != nil {
		return nil, nil, err
	}
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ApartmentID
	}
	details, err := p.deps.Details.FetchDetails(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return candidates, details, nil
}

// match picks the name path when the record's apartment name survives normalization,
// otherwise the address-only path.
func (p *Processor) match(record models.TransactionRecord, regionCode string, candidates []models.CandidateApartment, details map[int64]models.DetailRecord) Outcome {
	if p.matcher.HasUsableName(record.AptName) {
		return Outcome{
			RegionCode: regionCode,
			Path:       PathName,
			Result: p.matcher.Match(matching.Query{
				APIName:    record.AptName,
				RegionCode: regionCode,
				DongName:   record.DongName,
				LotNumber:  record.LotNumber,
				BuildYear:  record.BuildYear,
			}, candidates, details),
		}
	}
	return Outcome{
		RegionCode: regionCode,
		Path:       PathAddress,
		Result:     p.address.Match(record.LotNumber, record.BuildYear, candidates, details),
	}
}

func (p *Processor) observe(ctx context.Context, record models.TransactionRecord, outcome Outcome, elapsed time.Duration) {
	flat := matching.ToRecord(outcome.Result)
	metrics.RecordMatch(outcome.Path, string(flat.Status), flat.VetoKind, flat.Score, elapsed.Seconds())

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"transaction_id": record.ID,
		"region_code":    outcome.RegionCode,
		"path":           outcome.Path,
		"status":         flat.Status,
		"score":          flat.Score,
		"candidates":     flat.CandidatesCount,
	})
	if flat.Matched {
		log.Debug(flat.Reason)
		return
	}
	log.Info(flat.Reason)
}

func (p *Processor) publish(ctx context.Context, events []*kafka.OutcomeEvent) error {
	if p.deps.Events == nil || len(events) == 0 {
		return nil
	}
	if err := p.deps.Events.PublishOutcomes(ctx, events); err != nil {
		return fmt.Errorf("failed to publish %d outcome events: %w", len(events), err)
	}
	return nil
}
