// Package bundle defines the per-pass ContextBundle consumed by the scoring
// pipeline.
package bundle

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/sawpanic/vibeoracle/internal/calendar"
)

// ErrInvalidBundle is the root of every bundle validation failure.
var ErrInvalidBundle = errors.New("invalid context bundle")

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid context bundle: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidBundle
}

// SeedLength is the hex length of the 256-bit random seed.
const SeedLength = 64

// Bundle is an immutable snapshot of everything known about the requester at
// the moment of a ranking pass.
type Bundle struct {
	Timestamp        int64              `json:"timestamp"`
	SolarTerm        string             `json:"solar_term"`
	LunarDate        calendar.LunarDate `json:"lunar_date"`
	HourLabel        string             `json:"hour_label"`
	Weekday          int                `json:"weekday"`
	MoonPhase        float64            `json:"moon_phase"`
	Longitude        float64            `json:"longitude"`
	Latitude         float64            `json:"latitude"`
	Timezone         string             `json:"timezone"`
	City             string             `json:"city"`
	Country          string             `json:"country"`
	DeviceType       string             `json:"device_type"`
	OS               string             `json:"os"`
	Browser          string             `json:"browser"`
	ScreenResolution [2]int             `json:"screen_resolution"`
	CPUCores         int                `json:"cpu_cores"`
	ConnectionType   string             `json:"connection_type"`
	Downlink         float64            `json:"downlink"`
	RandomSeed       string             `json:"random_seed"`
	MouseEntropy     float64            `json:"mouse_entropy"`
	ClickCadence     float64            `json:"click_cadence"`

	// HoverHistory maps candidate name to cumulative hover milliseconds. It is
	// only meaningful on reroll passes.
	HoverHistory map[string]int64 `json:"hover_history,omitempty"`
}

// Validate checks presence and ranges of the fields the algorithms read.
func (b *Bundle) Validate() error {
	if b == nil {
		return &ValidationError{Field: "bundle", Reason: "is nil"}
	}
	if b.Timestamp <= 0 {
		return &ValidationError{Field: "timestamp", Reason: "must be a positive unix millisecond value"}
	}
	if !calendar.IsHourLabel(b.HourLabel) {
		return &ValidationError{Field: "hour_label", Reason: fmt.Sprintf("%q is not an hour label", b.HourLabel)}
	}
	if !calendar.IsSolarTerm(b.SolarTerm) {
		return &ValidationError{Field: "solar_term", Reason: fmt.Sprintf("%q is not a solar term", b.SolarTerm)}
	}
	if b.Weekday < 0 || b.Weekday > 6 {
		return &ValidationError{Field: "weekday", Reason: "must be within 0-6"}
	}
	if !finite(b.MoonPhase) || b.MoonPhase < 0 || b.MoonPhase >= 1 {
		return &ValidationError{Field: "moon_phase", Reason: "must be within [0,1)"}
	}
	if !finite(b.Latitude) || b.Latitude < -90 || b.Latitude > 90 {
		return &ValidationError{Field: "latitude", Reason: "must be within [-90,90]"}
	}
	if !finite(b.Longitude) || b.Longitude < -180 || b.Longitude > 180 {
		return &ValidationError{Field: "longitude", Reason: "must be within [-180,180]"}
	}
	if !finite(b.MouseEntropy) || b.MouseEntropy < 0 || b.MouseEntropy > 1 {
		return &ValidationError{Field: "mouse_entropy", Reason: "must be within [0,1]"}
	}
	if !finite(b.ClickCadence) || b.ClickCadence < 0 {
		return &ValidationError{Field: "click_cadence", Reason: "must be a finite non-negative number"}
	}
	if len(b.RandomSeed) != SeedLength || !isHex(b.RandomSeed) {
		return &ValidationError{Field: "random_seed", Reason: "must be 64 hex characters"}
	}
	for name, ms := range b.HoverHistory {
		if ms < 0 {
			return &ValidationError{Field: "hover_history", Reason: fmt.Sprintf("negative duration for %q", name)}
		}
	}
	return nil
}

// Time returns the pass instant in UTC.
func (b *Bundle) Time() time.Time {
	return time.UnixMilli(b.Timestamp).UTC()
}

// Location resolves the requester's IANA zone. Empty or unknown zones fall
// back to UTC.
func (b *Bundle) Location() *time.Location {
	return lookupLocation(b.Timezone)
}

// LocalTime is the pass instant as a wall clock in the requester's zone.
func (b *Bundle) LocalTime() time.Time {
	return time.UnixMilli(b.Timestamp).In(b.Location())
}

// WithHoverHistory returns a copy carrying the given hover totals.
func (b *Bundle) WithHoverHistory(history map[string]int64) *Bundle {
	cp := *b
	cp.HoverHistory = history
	return &cp
}

var locations sync.Map

func lookupLocation(name string) *time.Location {
	if name == "" || name == "UTC" {
		return time.UTC
	}
	if loc, ok := locations.Load(name); ok {
		return loc.(*time.Location)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Names come from clients; only real zones are cached.
		return time.UTC
	}
	locations.Store(name, loc)
	return loc
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}
