package apartment

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	apartmentsTable = "apartments"
	detailsTable    = "apartment_details"
)

// Repository reads the apartment catalog
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new apartment repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// FetchCandidates returns every catalog apartment in regionCode ordered by id
func (r *Repository) FetchCandidates(ctx context.Context, regionCode string) ([]models.CandidateApartment, error) {
	ctx, span := tracing.StartSpan(ctx, "ApartmentRepository.FetchCandidates")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("apartment_id", "apt_name")
	sb.From(apartmentsTable)
	sb.Where(sb.Equal("region_code", regionCode))
	sb.OrderBy("apartment_id")

	query, args := sb.Build()

	var candidates []models.CandidateApartment
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("region_code", regionCode).Error("failed to fetch candidate apartments")
		return nil, fmt.Errorf("failed to fetch candidates for region %s: %w", regionCode, err)
	}

	return candidates, nil
}

// FetchDetails returns the detail rows for ids keyed by apartment id. Ids without a
// detail row are absent from the map.
func (r *Repository) FetchDetails(ctx context.Context, ids []int64) (map[int64]models.DetailRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "ApartmentRepository.FetchDetails")
	defer span.End()

	details := make(map[int64]models.DetailRecord, len(ids))
	if len(ids) == 0 {
		return details, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select("apartment_id", "lot_address", "build_year")
	sb.From(detailsTable)
	sb.Where(sb.In("apartment_id", ectolinq.Map(ids, func(id int64) any { return id })...))

	query, args := sb.Build()

	var rows []models.DetailRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to fetch apartment details")
		return nil, fmt.Errorf("failed to fetch apartment details: %w", err)
	}

	for _, row := range rows {
		details[row.ApartmentID] = row
	}
	return details, nil
}
