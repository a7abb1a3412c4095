package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const tableName = "transactions"

var recordColumns = []string{
	"id", "kind", "region_code", "sigungu_code", "dong_name", "apt_name",
	"lot_number", "build_year", "COALESCE(deal_date, DATE '0001-01-01') AS deal_date",
	"apartment_id", "match_score", "matched_at",
}

// Repository stores transaction records and their attribution
type Repository struct {
	db     database.DB
	logger ectologger.Logger
	now    func() time.Time
}

// NewRepository creates a new transaction repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Upsert stores an ingested record. Re-delivered records refresh the feed fields but keep
// any attribution already made.
func (r *Repository) Upsert(ctx context.Context, record models.TransactionRecord) error {
	ctx, span := tracing.StartSpan(ctx, "TransactionRepository.Upsert")
	defer span.End()

	now := r.now().UTC()

	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName)
	ib.Cols("id", "kind", "region_code", "sigungu_code", "dong_name", "apt_name", "lot_number", "build_year", "deal_date", "created_at", "updated_at")
	ib.Values(record.ID, record.Kind, record.RegionCode, record.SigunguCode, record.DongName, record.AptName,
		record.LotNumber, record.BuildYear, nullableDate(record.DealDate), now, now)

	ub := ib.OnConflict("id")
	ub.Set(
		ub.Assign("region_code", database.Excluded("region_code")),
		ub.Assign("dong_name", database.Excluded("dong_name")),
		ub.Assign("apt_name", database.Excluded("apt_name")),
		ub.Assign("lot_number", database.Excluded("lot_number")),
		ub.Assign("build_year", database.Excluded("build_year")),
		ub.Assign("deal_date", database.Excluded("deal_date")),
		ub.Assign("updated_at", database.Excluded("updated_at")),
	)

	query, args := ib.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("transaction_id", record.ID).Error("failed to upsert transaction")
		return fmt.Errorf("failed to upsert transaction %s: %w", record.ID, err)
	}

	return nil
}

// RecordOutcome writes the match status of a transaction, and the apartment, score and
// match time when it was matched.
func (r *Repository) RecordOutcome(ctx context.Context, id string, outcome matching.Record) error {
	ctx, span := tracing.StartSpan(ctx, "TransactionRepository.RecordOutcome")
	defer span.End()

	now := r.now().UTC()

	ub := database.NewUpdateBuilder()
	ub.Update(tableName)
	assignments := []string{
		ub.Assign("match_status", string(outcome.Status)),
		ub.Assign("match_reason", outcome.Reason),
		ub.Assign("updated_at", now),
	}
	if outcome.Matched && outcome.ApartmentID != nil {
		assignments = append(assignments,
			ub.Assign("apartment_id", *outcome.ApartmentID),
			ub.Assign("match_score", outcome.Score),
			ub.Assign("matched_at", now),
		)
	}
	ub.Set(assignments...)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("transaction_id", id).Error("failed to record match outcome")
		return fmt.Errorf("failed to record outcome for transaction %s: %w", id, err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("transaction %s not found", id)
	}

	if outcome.Matched {
		r.logger.WithContext(ctx).WithFields(map[string]any{
			"transaction_id": id,
			"apartment_id":   *outcome.ApartmentID,
			"score":          outcome.Score,
		}).Debug("attributed transaction")
	}
	return nil
}

// ListUnmatched returns up to limit records with no apartment, oldest deal first.
// An empty regionCode lists every region.
func (r *Repository) ListUnmatched(ctx context.Context, regionCode string, limit int) ([]models.TransactionRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "TransactionRepository.ListUnmatched")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(recordColumns...)
	sb.From(tableName)
	conditions := []string{sb.IsNull("apartment_id")}
	if regionCode != "" {
		conditions = append(conditions, sb.Equal("region_code", regionCode))
	}
	sb.Where(conditions...)
	sb.OrderBy("deal_date", "id")
	if limit > 0 {
		sb.Limit(limit)
	}

	query, args := sb.Build()

	var records []models.TransactionRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list unmatched transactions")
		return nil, fmt.Errorf("failed to list unmatched transactions: %w", err)
	}

	return records, nil
}

func nullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
