package http

import (
	"time"

	"github.com/sawpanic/vibeoracle/internal/calendar"
	"github.com/sawpanic/vibeoracle/internal/ranking"
)

// ErrorBody is the payload of every non-2xx response.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse wraps ErrorBody as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// RankResponse is a completed pass plus what is left of the reroll quota for
// its hour label.
type RankResponse struct {
	SessionID        string        `json:"session_id"`
	RemainingRerolls int           `json:"remaining_rerolls"`
	Pass             *ranking.Pass `json:"pass"`
}

type RerollsResponse struct {
	Label     string `json:"label"`
	Remaining int    `json:"remaining"`
	Limit     int    `json:"limit"`
}

// Hover actions.
const (
	HoverStart = "start"
	HoverEnd   = "end"
)

// HoverEvent is the body of the hover endpoint and one websocket frame.
type HoverEvent struct {
	Candidate string `json:"candidate"`
	Action    string `json:"action"`
}

// HoverAck answers a websocket frame with the candidate's accumulated total.
type HoverAck struct {
	Candidate string `json:"candidate"`
	Action    string `json:"action"`
	TotalMS   int64  `json:"total_ms"`
	Error     string `json:"error,omitempty"`
}

type HoverResponse struct {
	History map[string]int64 `json:"history"`
}

type CalendarResponse struct {
	At        time.Time          `json:"at"`
	Timezone  string             `json:"timezone"`
	SolarTerm string             `json:"solar_term"`
	Season    string             `json:"season"`
	LunarDate calendar.LunarDate `json:"lunar_date"`
	Lunar     string             `json:"lunar"`
	HourLabel string             `json:"hour_label"`
	Weekday   int                `json:"weekday"`
	MoonPhase float64            `json:"moon_phase"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
	Version   string    `json:"version"`
	GoVersion string    `json:"go_version"`
	Routines  int       `json:"goroutines"`
	Sessions  int       `json:"sessions"`

	RateLimit *RateLimitHealth `json:"rate_limit,omitempty"`
}

// RateLimitHealth summarizes the per-client buckets.
type RateLimitHealth struct {
	Clients   int `json:"clients"`
	Throttled int `json:"throttled"`
}
