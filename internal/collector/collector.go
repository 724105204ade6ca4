// Package collector assembles a ContextBundle on the server from the raw
// signals a client reports.
package collector

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/sawpanic/vibeoracle/internal/calendar"
	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
)

// Fallbacks applied when a signal is absent.
const (
	DefaultLatitude       = 40.7128
	DefaultLongitude      = -74.0060
	DefaultConnectionType = "unknown"
	DefaultCPUCores       = 4
	DefaultDownlink       = 50.0
	UnknownPlace          = "Unknown"
)

// Point is one pointer sample in client pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ClientSignals is everything a client may report. Every field is optional.
type ClientSignals struct {
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	Timezone         string   `json:"timezone,omitempty"`
	City             string   `json:"city,omitempty"`
	Country          string   `json:"country,omitempty"`
	UserAgent        string   `json:"user_agent,omitempty"`
	Platform         string   `json:"platform,omitempty"`
	ScreenResolution [2]int   `json:"screen_resolution,omitempty"`
	CPUCores         int      `json:"cpu_cores,omitempty"`
	ConnectionType   string   `json:"connection_type,omitempty"`
	Downlink         float64  `json:"downlink,omitempty"`
	Pointer          []Point  `json:"pointer,omitempty"`
	// Clicks are unix millisecond click times in the order they happened.
	Clicks []int64 `json:"clicks,omitempty"`
	// HoverHistory is passed through untouched for reroll passes.
	HoverHistory map[string]int64 `json:"hover_history,omitempty"`
}

// Collector builds bundles. The zero value is not usable; call New.
type Collector struct {
	now    func() time.Time
	random io.Reader
}

type Option func(*Collector)

func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// WithRandom replaces the seed source. Tests use it for reproducible seeds.
func WithRandom(r io.Reader) Option {
	return func(c *Collector) { c.random = r }
}

func New(opts ...Option) *Collector {
	c := &Collector{now: time.Now, random: rand.Reader}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect assembles and validates a bundle for the current instant.
func (c *Collector) Collect(sig ClientSignals) (*bundle.Bundle, error) {
	seed, err := c.seed()
	if err != nil {
		return nil, err
	}
	now := c.now()

	b := &bundle.Bundle{
		Timestamp:        now.UnixMilli(),
		Latitude:         DefaultLatitude,
		Longitude:        DefaultLongitude,
		Timezone:         sig.Timezone,
		City:             orDefault(sig.City, UnknownPlace),
		Country:          orDefault(sig.Country, UnknownPlace),
		DeviceType:       DeviceType(sig.UserAgent),
		OS:               OS(sig.Platform, sig.UserAgent),
		Browser:          Browser(sig.UserAgent),
		ScreenResolution: sig.ScreenResolution,
		CPUCores:         sig.CPUCores,
		ConnectionType:   orDefault(sig.ConnectionType, DefaultConnectionType),
		Downlink:         sig.Downlink,
		RandomSeed:       seed,
		MouseEntropy:     MouseEntropy(sig.Pointer),
		ClickCadence:     ClickCadence(sig.Clicks, now),
		HoverHistory:     sig.HoverHistory,
	}
	if sig.Latitude != nil && sig.Longitude != nil {
		b.Latitude, b.Longitude = *sig.Latitude, *sig.Longitude
	}
	if b.CPUCores <= 0 {
		b.CPUCores = DefaultCPUCores
	}
	if b.Downlink <= 0 {
		b.Downlink = DefaultDownlink
	}
	Stamp(b, now)

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Stamp fills the timestamp and every calendar field of b from t, read as a
// wall clock in b's time zone.
func Stamp(b *bundle.Bundle, t time.Time) {
	b.Timestamp = t.UnixMilli()
	local := b.LocalTime()
	b.SolarTerm = calendar.SolarTerm(local)
	b.LunarDate = calendar.Lunar(local)
	b.HourLabel = calendar.HourLabel(local.Hour())
	b.Weekday = int(local.Weekday())
	b.MoonPhase = calendar.MoonPhase(local)
}

func (c *Collector) seed() (string, error) {
	buf := make([]byte, bundle.SeedLength/2)
	if _, err := io.ReadFull(c.random, buf); err != nil {
		return "", fmt.Errorf("read random seed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
