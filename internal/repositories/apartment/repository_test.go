package apartment

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *Repository) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return mock, NewRepository(sqlx.NewDb(mockDB, "postgres"), logger)
}

func TestFetchCandidates(t *testing.T) {
	mock, repo := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"apartment_id", "apt_name"}).
		AddRow(int64(1), "래미안 대치팰리스").
		AddRow(int64(2), "은마")
	mock.ExpectQuery(`SELECT apartment_id, apt_name FROM apartments WHERE region_code = \$1 ORDER BY apartment_id`).
		WithArgs("1168010600").
		WillReturnRows(rows)

	candidates, err := repo.FetchCandidates(context.Background(), "1168010600")
	require.NoError(t, err)
	assert.Equal(t, []models.CandidateApartment{
		{ApartmentID: 1, AptName: "래미안 대치팰리스"},
		{ApartmentID: 2, AptName: "은마"},
	}, candidates)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchCandidates_Error(t *testing.T) {
	mock, repo := setupMockDB(t)

	mock.ExpectQuery(`SELECT`).WithArgs("r1").WillReturnError(errors.New("connection reset"))

	_, err := repo.FetchCandidates(context.Background(), "r1")
	assert.ErrorContains(t, err, "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchDetails(t *testing.T) {
	mock, repo := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"apartment_id", "lot_address", "build_year"}).
		AddRow(int64(1), "서울특별시 강남구 대치동 316", "1979").
		AddRow(int64(3), "서울특별시 강남구 대치동 1027", "2015")
	mock.ExpectQuery(`SELECT apartment_id, lot_address, build_year FROM apartment_details WHERE apartment_id IN \(\$1, \$2, \$3\)`).
		WithArgs(int64(1), int64(2), int64(3)).
		WillReturnRows(rows)

	details, err := repo.FetchDetails(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, details, 2)
	assert.Equal(t, "1979", details[1].BuildYear)
	_, ok := details[2]
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchDetails_NoIDs(t *testing.T) {
	mock, repo := setupMockDB(t)

	details, err := repo.FetchDetails(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, details)
	require.NoError(t, mock.ExpectationsWereMet())
}
