package sqlrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/vibeoracle/internal/persistence"
)

func newMockRepo(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "postgres"), time.Second), mock
}

func sampleRecord() persistence.PassRecord {
	return persistence.PassRecord{
		ID:            "p-1",
		SessionID:     "s-1",
		Reroll:        false,
		HourLabel:     "巳",
		SolarTerm:     "春分",
		Seed:          "00",
		OS:            "macOS",
		GeneratedAtMS: 1742466600000,
		DurationMS:    2,
		Results: []persistence.ResultRecord{
			{Rank: 1, Candidate: "OpenAI", Score: 76.25, Base: 56.04, Bonus: 7.5, Multiplier: 1.2, Raw: "{}"},
			{Rank: 2, Candidate: "xAI", Score: 67.89, Base: 54.07, Bonus: 2.5, Multiplier: 1.2, Raw: "{}"},
		},
	}
}

var passCols = []string{"id", "session_id", "reroll", "hour_label", "solar_term", "seed", "os", "generated_at_ms", "duration_ms"}

var resultCols = []string{"pass_id", "rank", "candidate", "score", "base", "bonus", "multiplier", "raw"}

func TestMigrate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS oracle_passes").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS oracle_passes_generated_idx").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS oracle_results").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordCommitsPassAndResults(t *testing.T) {
	repo, mock := newMockRepo(t)
	rec := sampleRecord()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO oracle_passes").
		WithArgs("p-1", "s-1", false, "巳", "春分", "00", "macOS", int64(1742466600000), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO oracle_results").
		WithArgs("p-1", 1, "OpenAI", 76.25, 56.04, 7.5, 1.2, "{}").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO oracle_results").
		WithArgs("p-1", 2, "xAI", 67.89, 54.07, 2.5, 1.2, "{}").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Record(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRollsBackOnFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO oracle_passes").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO oracle_results").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Record(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p-1/1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestByID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM oracle_passes WHERE id = \$1`).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(passCols).
			AddRow("p-1", "s-1", true, "巳", "春分", "00", "macOS", int64(1742466600000), int64(2)))
	mock.ExpectQuery(`SELECT (.+) FROM oracle_results WHERE pass_id IN \(\$1\)`).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(resultCols).
			AddRow("p-1", 1, "OpenAI", 84.82, 60.0, 7.5, 1.2, "{}").
			AddRow("p-1", 2, "xAI", 61.91, 50.0, 2.5, 1.2, "{}"))

	rec, err := repo.ByID(context.Background(), "p-1")
	require.NoError(t, err)
	assert.True(t, rec.Reroll)
	assert.Equal(t, time.Date(2025, 3, 20, 10, 30, 0, 0, time.UTC), rec.GeneratedAt())
	require.Len(t, rec.Results, 2)
	assert.Equal(t, "xAI", rec.Results[1].Candidate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM oracle_passes").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(passCols))

	_, err := repo.ByID(context.Background(), "missing")
	assert.ErrorIs(t, err, persistence.ErrPassNotFound)
}

func TestRecent(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM oracle_passes ORDER BY generated_at_ms DESC LIMIT \$1`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(passCols).
			AddRow("p-2", "s-1", true, "巳", "春分", "00", "macOS", int64(1742466700000), int64(1)).
			AddRow("p-1", "s-1", false, "巳", "春分", "00", "macOS", int64(1742466600000), int64(2)))
	mock.ExpectQuery(`SELECT (.+) FROM oracle_results WHERE pass_id IN \(\$1, \$2\)`).
		WithArgs("p-2", "p-1").
		WillReturnRows(sqlmock.NewRows(resultCols).
			AddRow("p-1", 1, "OpenAI", 76.25, 56.0, 7.5, 1.2, "{}").
			AddRow("p-2", 1, "OpenAI", 84.82, 60.0, 7.5, 1.2, "{}"))

	passes, err := repo.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, passes, 2)
	assert.Equal(t, "p-2", passes[0].ID)
	require.Len(t, passes[0].Results, 1)
	assert.Equal(t, 84.82, passes[0].Results[0].Score)
	require.Len(t, passes[1].Results, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWindow(t *testing.T) {
	repo, mock := newMockRepo(t)
	from := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	tr := persistence.TimeRange{From: from, To: from.Add(24 * time.Hour)}

	mock.ExpectQuery(`SELECT (.+) FROM oracle_passes\s+WHERE generated_at_ms >= \$1 AND generated_at_ms < \$2`).
		WithArgs(from.UnixMilli(), from.Add(24*time.Hour).UnixMilli(), 10).
		WillReturnRows(sqlmock.NewRows(passCols))

	passes, err := repo.Window(context.Background(), tr, 10)
	require.NoError(t, err)
	assert.Empty(t, passes)
	require.NoError(t, mock.ExpectationsWereMet())

	_, err = repo.Window(context.Background(), persistence.TimeRange{From: from, To: from}, 10)
	assert.Error(t, err)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "", 0)
	assert.Error(t, err)
}

func TestOpenSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, DriverSQLite, ":memory:", 4)
	require.NoError(t, err)
	defer db.Close()

	repo := New(db, time.Second)
	require.NoError(t, repo.Migrate(ctx))
	require.NoError(t, repo.Record(ctx, sampleRecord()))

	rec, err := repo.ByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "巳", rec.HourLabel)
	require.Len(t, rec.Results, 2)
	assert.Equal(t, "OpenAI", rec.Results[0].Candidate)

	recent, err := repo.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
