package transaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *Repository) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	repo := NewRepository(sqlx.NewDb(mockDB, "postgres"), logger)
	repo.now = func() time.Time { return fixedNow }
	return mock, repo
}

func TestUpsert(t *testing.T) {
	mock, repo := setupMockDB(t)

	mock.ExpectExec(`INSERT INTO transactions \(id, kind, region_code, .*\) VALUES .* ON CONFLICT \(id\) DO UPDATE .*apt_name = EXCLUDED.apt_name`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), models.TransactionRecord{
		ID:          "tx-1",
		Kind:        models.TransactionKindSale,
		SigunguCode: "11680",
		AptName:     "래미안",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordOutcome_Matched(t *testing.T) {
	mock, repo := setupMockDB(t)

	mock.ExpectExec(`UPDATE transactions SET match_status = \$1, match_reason = \$2, updated_at = \$3, apartment_id = \$4, match_score = \$5, matched_at = \$6 WHERE id = \$7`).
		WithArgs("matched", "matched 래미안 with score 92.50", fixedNow, int64(7), 92.5, fixedNow, "tx-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	outcome := matching.ToRecord(matching.Matched{
		Summary:       matching.Summary{Reason: "matched 래미안 with score 92.50"},
		ApartmentID:   7,
		ApartmentName: "래미안",
		Score:         92.5,
	})
	require.NoError(t, repo.RecordOutcome(context.Background(), "tx-1", outcome))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordOutcome_NotMatchedKeepsAttribution(t *testing.T) {
	mock, repo := setupMockDB(t)

	mock.ExpectExec(`UPDATE transactions SET match_status = \$1, match_reason = \$2, updated_at = \$3 WHERE id = \$4`).
		WithArgs("ambiguous", "ambiguous", fixedNow, "tx-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	outcome := matching.ToRecord(matching.Ambiguous{Summary: matching.Summary{Reason: "ambiguous"}})
	require.NoError(t, repo.RecordOutcome(context.Background(), "tx-1", outcome))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordOutcome_Missing(t *testing.T) {
	mock, repo := setupMockDB(t)

	mock.ExpectExec(`UPDATE transactions`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RecordOutcome(context.Background(), "tx-404", matching.ToRecord(matching.NoInput{}))
	assert.ErrorContains(t, err, "not found")
}

func TestListUnmatched(t *testing.T) {
	mock, repo := setupMockDB(t)

	deal := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "kind", "region_code", "sigungu_code", "dong_name", "apt_name",
		"lot_number", "build_year", "deal_date", "apartment_id", "match_score", "matched_at",
	}).AddRow("tx-1", "sale", "1168010600", "11680", "대치동", "래미안", "316", "1998", deal, nil, nil, nil)

	mock.ExpectQuery(`SELECT .* FROM transactions WHERE apartment_id IS NULL AND region_code = \$1 ORDER BY deal_date, id`).
		WillReturnRows(rows)

	records, err := repo.ListUnmatched(context.Background(), "1168010600", 100)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "tx-1", records[0].ID)
	assert.Equal(t, models.TransactionKindSale, records[0].Kind)
	assert.Equal(t, deal, records[0].DealDate)
	assert.False(t, records[0].IsMatched())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListUnmatched_Error(t *testing.T) {
	mock, repo := setupMockDB(t)

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("timeout"))

	_, err := repo.ListUnmatched(context.Background(), "", 0)
	assert.ErrorContains(t, err, "timeout")
}
