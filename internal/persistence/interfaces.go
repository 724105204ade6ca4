package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
	"github.com/sawpanic/vibeoracle/internal/ranking"
)

// ErrPassNotFound is returned when a pass id is not in the history.
var ErrPassNotFound = errors.New("pass not found")

// TimeRange is a half-open window [From, To) over pass generation times.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Valid reports whether the range is non-empty.
func (tr TimeRange) Valid() bool {
	return tr.To.After(tr.From)
}

// PassRecord is one completed ranking pass as stored and published.
// Timestamps are unix milliseconds so the same schema works on every driver.
type PassRecord struct {
	ID            string         `json:"id" db:"id"`
	SessionID     string         `json:"session_id" db:"session_id"`
	Reroll        bool           `json:"reroll" db:"reroll"`
	HourLabel     string         `json:"hour_label" db:"hour_label"`
	SolarTerm     string         `json:"solar_term" db:"solar_term"`
	Seed          string         `json:"seed" db:"seed"`
	OS            string         `json:"os" db:"os"`
	GeneratedAtMS int64          `json:"generated_at_ms" db:"generated_at_ms"`
	DurationMS    int64          `json:"duration_ms" db:"duration_ms"`
	Results       []ResultRecord `json:"results" db:"-"`
}

// ResultRecord is one ranked candidate within a pass.
type ResultRecord struct {
	PassID     string  `json:"-" db:"pass_id"`
	Rank       int     `json:"rank" db:"rank"`
	Candidate  string  `json:"candidate" db:"candidate"`
	Score      float64 `json:"score" db:"score"`
	Base       float64 `json:"base" db:"base"`
	Bonus      float64 `json:"bonus" db:"bonus"`
	Multiplier float64 `json:"multiplier" db:"multiplier"`
	Raw        string  `json:"raw" db:"raw"`
}

// GeneratedAt converts the stored timestamp back to a time.
func (r PassRecord) GeneratedAt() time.Time {
	return time.UnixMilli(r.GeneratedAtMS).UTC()
}

// NewPassRecord flattens a pass for storage.
func NewPassRecord(sessionID string, b *bundle.Bundle, pass *ranking.Pass) PassRecord {
	rec := PassRecord{
		ID:            pass.ID,
		SessionID:     sessionID,
		Reroll:        pass.Reroll,
		HourLabel:     pass.HourLabel,
		SolarTerm:     pass.SolarTerm,
		Seed:          b.RandomSeed,
		OS:            b.OS,
		GeneratedAtMS: pass.GeneratedAt.UnixMilli(),
		DurationMS:    pass.Duration.Milliseconds(),
		Results:       make([]ResultRecord, 0, len(pass.Results)),
	}
	for _, r := range pass.Results {
		raw, _ := json.Marshal(r.Breakdown.Raw)
		rec.Results = append(rec.Results, ResultRecord{
			PassID:     pass.ID,
			Rank:       r.Rank,
			Candidate:  r.Candidate,
			Score:      r.Score,
			Base:       r.Breakdown.Base,
			Bonus:      r.Breakdown.Bonus.Total(),
			Multiplier: r.Breakdown.Multiplier,
			Raw:        string(raw),
		})
	}
	return rec
}

// PassRepo stores the ranking history.
type PassRepo interface {
	// Record stores a pass and all of its results atomically.
	Record(ctx context.Context, rec PassRecord) error

	// ByID returns a single pass with results, or ErrPassNotFound.
	ByID(ctx context.Context, id string) (*PassRecord, error)

	// Recent returns the latest passes, newest first.
	Recent(ctx context.Context, limit int) ([]PassRecord, error)

	// Window returns passes generated inside tr, oldest first.
	Window(ctx context.Context, tr TimeRange, limit int) ([]PassRecord, error)
}
