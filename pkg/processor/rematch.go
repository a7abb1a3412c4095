package processor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/fern/pkg/appctx"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Config controls batch rematching
type Config struct {
	Workers   int           // Regions processed concurrently (default: 4)
	BatchSize int           // Unmatched records loaded per rematch run (default: 5000)
	LockTTL   time.Duration // Lifetime of a region lock (default: 5m)
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 5000
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 5 * time.Minute
	}
	return c
}

// RematchStats summarizes one rematch run.
type RematchStats struct {
	Regions    int   `json:"regions"`
	Records    int   `json:"records"`
	Matched    int64 `json:"matched"`
	Unmatched  int64 `json:"unmatched"`
	Unresolved int   `json:"unresolved"`
	Skipped    int64 `json:"skipped"` // regions locked by another instance
}

// Rematch re-attributes previously unmatched records, one region per worker. An empty
// regionCode covers every region. Records whose region cannot be resolved are left alone.
func (p *Processor) Rematch(ctx context.Context, regionCode string) (RematchStats, error) {
	ctx, span := tracing.StartSpan(ctx, "processor.Rematch")
	defer span.End()

	var stats RematchStats

	records, err := p.deps.Transactions.ListUnmatched(ctx, regionCode, p.config.BatchSize)
	if err != nil {
		return stats, err
	}
	stats.Records = len(records)

	byRegion := make(map[string][]models.TransactionRecord)
	for _, record := range records {
		code, err := p.regionCode(ctx, record)
		if err != nil {
			return stats, err
		}
		if code == "" {
			stats.Unresolved++
			continue
		}
		record.RegionCode = code
		byRegion[code] = append(byRegion[code], record)
	}

	regions := make([]string, 0, len(byRegion))
	for code := range byRegion {
		regions = append(regions, code)
	}
	sort.Strings(regions)
	stats.Regions = len(regions)

	var matched, unmatched, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)
	for _, code := range regions {
		g.Go(func() error {
			m, u, err := p.rematchRegion(gctx, code, byRegion[code])
			if errors.Is(err, redis.ErrLockNotAcquired) {
				p.logger.WithContext(gctx).WithField("region_code", code).Info("region is being rematched elsewhere, skipping")
				skipped.Add(1)
				return nil
			}
			matched.Add(int64(m))
			unmatched.Add(int64(u))
			return err
		})
	}
	err = g.Wait()

	stats.Matched = matched.Load()
	stats.Unmatched = unmatched.Load()
	stats.Skipped = skipped.Load()

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"regions":    stats.Regions,
		"records":    stats.Records,
		"matched":    stats.Matched,
		"unmatched":  stats.Unmatched,
		"unresolved": stats.Unresolved,
		"skipped":    stats.Skipped,
	}).Info("rematch finished")

	return stats, err
}

// rematchRegion fetches the region's candidates once and attributes every record in it.
func (p *Processor) rematchRegion(ctx context.Context, regionCode string, records []models.TransactionRecord) (int, int, error) {
	var matched, unmatched int

	run := func(ctx context.Context) error {
		ctx = appctx.SetRegionCode(ctx, regionCode)

		candidates, details, err := p.fetch(ctx, regionCode)
		if err != nil {
			return err
		}

		events := make([]*kafka.OutcomeEvent, 0, len(records))
		for _, record := range records {
			start := time.Now()
			outcome := p.match(record, regionCode, candidates, details)
			p.observe(appctx.SetTransactionID(ctx, record.ID), record, outcome, time.Since(start))

			flat := matching.ToRecord(outcome.Result)
			if err := p.deps.Transactions.RecordOutcome(ctx, record.ID, flat); err != nil {
				return err
			}
			if flat.Matched {
				matched++
			} else {
				unmatched++
			}
			events = append(events, kafka.NewOutcomeEvent(record, outcome.Path, flat))
		}
		return p.publish(ctx, events)
	}

	if p.deps.Locker == nil {
		return matched, unmatched, run(ctx)
	}
	err := p.deps.Locker.WithLock(ctx, fmt.Sprintf("rematch:%s", regionCode), p.config.LockTTL, run)
	return matched, unmatched, err
}
