package region

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const tableName = "regions"

// Repository reads and maintains the region code table
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new region repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListBySigungu returns every region of a sigungu ordered by region code
func (r *Repository) ListBySigungu(ctx context.Context, sigunguCode string) ([]models.Region, error) {
	ctx, span := tracing.StartSpan(ctx, "RegionRepository.ListBySigungu")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("region_code", "sigungu_code", "dong_name")
	sb.From(tableName)
	sb.Where(sb.Equal("sigungu_code", sigunguCode))
	sb.OrderBy("region_code")

	query, args := sb.Build()

	var regions []models.Region
	if err := r.db.SelectContext(ctx, &regions, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("sigungu_code", sigunguCode).Error("failed to list regions")
		return nil, fmt.Errorf("failed to list regions for sigungu %s: %w", sigunguCode, err)
	}

	return regions, nil
}

// Upsert inserts a region or renames it when the code already exists
func (r *Repository) Upsert(ctx context.Context, region models.Region) error {
	ctx, span := tracing.StartSpan(ctx, "RegionRepository.Upsert")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName)
	ib.Cols("region_code", "sigungu_code", "dong_name")
	ib.Values(region.RegionCode, region.SigunguCode, region.DongName)

	ub := ib.OnConflict("region_code")
	ub.Set(
		ub.Assign("sigungu_code", database.Excluded("sigungu_code")),
		ub.Assign("dong_name", database.Excluded("dong_name")),
	)

	query, args := ib.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("region_code", region.RegionCode).Error("failed to upsert region")
		return fmt.Errorf("failed to upsert region %s: %w", region.RegionCode, err)
	}

	return nil
}
