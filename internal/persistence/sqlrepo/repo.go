// Package sqlrepo implements the pass history on sqlx, backed by PostgreSQL
// (lib/pq) or SQLite (modernc).
package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/sawpanic/vibeoracle/internal/persistence"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const passColumns = `id, session_id, reroll, hour_label, solar_term, seed, os, generated_at_ms, duration_ms`

const resultColumns = `pass_id, rank, candidate, score, base, bonus, multiplier, raw`

var schema = []string{
	`CREATE TABLE IF NOT EXISTS oracle_passes (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		reroll BOOLEAN NOT NULL,
		hour_label TEXT NOT NULL,
		solar_term TEXT NOT NULL,
		seed TEXT NOT NULL,
		os TEXT NOT NULL,
		generated_at_ms BIGINT NOT NULL,
		duration_ms BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS oracle_passes_generated_idx ON oracle_passes (generated_at_ms)`,
	`CREATE TABLE IF NOT EXISTS oracle_results (
		pass_id TEXT NOT NULL REFERENCES oracle_passes (id) ON DELETE CASCADE,
		rank INTEGER NOT NULL,
		candidate TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		base DOUBLE PRECISION NOT NULL,
		bonus DOUBLE PRECISION NOT NULL,
		multiplier DOUBLE PRECISION NOT NULL,
		raw TEXT NOT NULL,
		PRIMARY KEY (pass_id, rank)
	)`,
}

// Open connects to the history database and verifies the connection.
func Open(ctx context.Context, driver, dsn string, maxOpen int) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported history driver: %s", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// Every sqlite connection to :memory: is a separate database.
		maxOpen = 1
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	return db, nil
}

// Repo implements persistence.PassRepo.
type Repo struct {
	db      *sqlx.DB
	timeout time.Duration
}

var _ persistence.PassRepo = (*Repo)(nil)

// New wraps db. Every call runs under timeout.
func New(db *sqlx.DB, timeout time.Duration) *Repo {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Repo{db: db, timeout: timeout}
}

// Migrate creates the tables when missing.
func (r *Repo) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate history schema: %w", err)
		}
	}
	return nil
}

// Record stores the pass row and its result rows in one transaction.
func (r *Repo) Record(ctx context.Context, rec persistence.PassRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO oracle_passes (`+passColumns+`)
		VALUES (:id, :session_id, :reroll, :hour_label, :solar_term, :seed, :os, :generated_at_ms, :duration_ms)`, rec)
	if err != nil {
		return fmt.Errorf("failed to insert pass %s: %w", rec.ID, err)
	}

	for _, res := range rec.Results {
		res.PassID = rec.ID
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO oracle_results (`+resultColumns+`)
			VALUES (:pass_id, :rank, :candidate, :score, :base, :bonus, :multiplier, :raw)`, res)
		if err != nil {
			return fmt.Errorf("failed to insert result %s/%d: %w", rec.ID, res.Rank, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pass %s: %w", rec.ID, err)
	}
	return nil
}

// ByID returns one pass with its results.
func (r *Repo) ByID(ctx context.Context, id string) (*persistence.PassRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rec persistence.PassRecord
	query := r.db.Rebind(`SELECT ` + passColumns + ` FROM oracle_passes WHERE id = ?`)
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrPassNotFound, id)
		}
		return nil, fmt.Errorf("failed to get pass %s: %w", id, err)
	}

	passes := []persistence.PassRecord{rec}
	if err := r.attachResults(ctx, passes); err != nil {
		return nil, err
	}
	return &passes[0], nil
}

// Recent returns the newest passes first.
func (r *Repo) Recent(ctx context.Context, limit int) ([]persistence.PassRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var passes []persistence.PassRecord
	query := r.db.Rebind(`SELECT ` + passColumns + ` FROM oracle_passes ORDER BY generated_at_ms DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &passes, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent passes: %w", err)
	}
	if err := r.attachResults(ctx, passes); err != nil {
		return nil, err
	}
	return passes, nil
}

// Window returns passes generated inside tr, oldest first.
func (r *Repo) Window(ctx context.Context, tr persistence.TimeRange, limit int) ([]persistence.PassRecord, error) {
	if !tr.Valid() {
		return nil, fmt.Errorf("invalid time range %s - %s", tr.From, tr.To)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var passes []persistence.PassRecord
	query := r.db.Rebind(`SELECT ` + passColumns + ` FROM oracle_passes
		WHERE generated_at_ms >= ? AND generated_at_ms < ?
		ORDER BY generated_at_ms ASC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &passes, query, tr.From.UnixMilli(), tr.To.UnixMilli(), limit); err != nil {
		return nil, fmt.Errorf("failed to list passes in window: %w", err)
	}
	if err := r.attachResults(ctx, passes); err != nil {
		return nil, err
	}
	return passes, nil
}

func (r *Repo) attachResults(ctx context.Context, passes []persistence.PassRecord) error {
	if len(passes) == 0 {
		return nil
	}

	ids := make([]string, len(passes))
	index := make(map[string]int, len(passes))
	for i, p := range passes {
		ids[i] = p.ID
		index[p.ID] = i
	}

	query, args, err := sqlx.In(`SELECT `+resultColumns+` FROM oracle_results WHERE pass_id IN (?) ORDER BY pass_id, rank`, ids)
	if err != nil {
		return fmt.Errorf("failed to build results query: %w", err)
	}

	var results []persistence.ResultRecord
	if err := r.db.SelectContext(ctx, &results, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}
	for _, res := range results {
		i := index[res.PassID]
		passes[i].Results = append(passes[i].Results, res)
	}
	return nil
}
