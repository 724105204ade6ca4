package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/vibeoracle/internal/calendar"
	"github.com/sawpanic/vibeoracle/internal/collector"
	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
	"github.com/sawpanic/vibeoracle/internal/domain/candidate"
	"github.com/sawpanic/vibeoracle/internal/net/ratelimit"
	"github.com/sawpanic/vibeoracle/internal/quota"
	"github.com/sawpanic/vibeoracle/internal/session"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// Handlers implements the API endpoints.
type Handlers struct {
	sessions  *session.Manager
	collector *collector.Collector
	registry  *candidate.Registry
	limiter   *ratelimit.Limiter
	version   string
	started   time.Time
	now       func() time.Time
}

func NewHandlers(deps Deps) *Handlers {
	h := &Handlers{
		sessions:  deps.Sessions,
		collector: deps.Collector,
		registry:  deps.Registry,
		version:   deps.Version,
		started:   time.Now(),
		now:       time.Now,
	}
	if h.collector == nil {
		h.collector = collector.New()
	}
	if h.registry == nil {
		h.registry = candidate.DefaultRegistry()
	}
	return h
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: requestID(r),
	}})
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, quota.ErrQuotaExhausted):
		return http.StatusTooManyRequests, "quota_exhausted"
	case errors.Is(err, bundle.ErrInvalidBundle):
		return http.StatusBadRequest, "invalid_bundle"
	case errors.Is(err, candidate.ErrUnknownCandidate):
		return http.StatusBadRequest, "unknown_candidate"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	}
	return http.StatusInternalServerError, "internal_error"
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", requestID(r)).Str("path", r.URL.Path).Msg("Request failed")
		message = "internal error"
	}
	writeError(w, r, status, code, message)
}

func (h *Handlers) session(r *http.Request) (*session.Session, error) {
	return h.sessions.Get(mux.Vars(r)["id"])
}

// CreateSession handles POST /v1/sessions.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	writeJSON(w, http.StatusCreated, SessionResponse{SessionID: s.ID()})
}

// DeleteSession handles DELETE /v1/sessions/{id}.
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Rank handles POST /v1/sessions/{id}/rank[?reroll=true]. The body carries
// optional client signals.
func (h *Handlers) Rank(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	reroll := false
	if v := r.URL.Query().Get("reroll"); v != "" {
		if reroll, err = strconv.ParseBool(v); err != nil {
			h.fail(w, r, badRequest("reroll must be a boolean"))
			return
		}
	}

	var signals collector.ClientSignals
	if err := decodeBody(r, &signals); err != nil {
		h.fail(w, r, err)
		return
	}

	b, err := h.collector.Collect(signals)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	pass, err := s.Rank(r.Context(), b, reroll)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	remaining, err := s.RemainingRerolls(r.Context(), pass.HourLabel)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RankResponse{SessionID: s.ID(), RemainingRerolls: remaining, Pass: pass})
}

// Rerolls handles GET /v1/sessions/{id}/rerolls?label=子.
func (h *Handlers) Rerolls(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	label := r.URL.Query().Get("label")
	if !calendar.IsHourLabel(label) {
		h.fail(w, r, badRequest("label %q is not an hour label", label))
		return
	}

	remaining, err := s.RemainingRerolls(r.Context(), label)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RerollsResponse{Label: label, Remaining: remaining, Limit: s.RerollLimit()})
}

// Hover handles POST /v1/sessions/{id}/hover.
func (h *Handlers) Hover(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var ev HoverEvent
	if err := decodeBody(r, &ev); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.applyHover(s, ev); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HoverResponse{History: s.HoverSnapshot()})
}

func (h *Handlers) applyHover(s *session.Session, ev HoverEvent) error {
	if !h.registry.Has(ev.Candidate) {
		return fmt.Errorf("%w: %q", candidate.ErrUnknownCandidate, ev.Candidate)
	}
	switch ev.Action {
	case HoverStart:
		s.StartHover(ev.Candidate)
	case HoverEnd:
		s.EndHover(ev.Candidate)
	default:
		return badRequest("action must be %q or %q", HoverStart, HoverEnd)
	}
	return nil
}

// ResetBehavior handles DELETE /v1/sessions/{id}/behavior.
func (h *Handlers) ResetBehavior(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s.ResetBehaviorTracking()
	w.WriteHeader(http.StatusNoContent)
}

// Candidates handles GET /v1/candidates.
func (h *Handlers) Candidates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.All())
}

// Calendar handles GET /v1/calendar?at=RFC3339&tz=Zone.
func (h *Handlers) Calendar(w http.ResponseWriter, r *http.Request) {
	resp, err := CalendarAt(r.URL.Query().Get("at"), r.URL.Query().Get("tz"), h.now)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CalendarAt resolves the calendar fields for an RFC 3339 instant (now when
// empty) read in the named zone (UTC when empty).
func CalendarAt(at, tz string, now func() time.Time) (CalendarResponse, error) {
	t := now()
	if at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return CalendarResponse{}, badRequest("at must be RFC 3339: %v", err)
		}
		t = parsed
	}
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return CalendarResponse{}, badRequest("unknown time zone %q", tz)
	}

	local := t.In(loc)
	term := calendar.SolarTerm(local)
	season, _ := calendar.SeasonOf(term)
	lunar := calendar.Lunar(local)
	return CalendarResponse{
		At:        local,
		Timezone:  tz,
		SolarTerm: term,
		Season:    season.String(),
		LunarDate: lunar,
		Lunar:     lunar.String(),
		HourLabel: calendar.HourLabel(local.Hour()),
		Weekday:   int(local.Weekday()),
		MoonPhase: calendar.MoonPhase(local),
	}, nil
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Version:   h.version,
		GoVersion: runtime.Version(),
		Routines:  runtime.NumGoroutine(),
		Sessions:  h.sessions.Len(),
	}
	if h.limiter != nil {
		rl := &RateLimitHealth{}
		for _, st := range h.limiter.Stats() {
			rl.Clients++
			if st.IsThrottled() {
				rl.Throttled++
			}
		}
		resp.RateLimit = rl
	}
	writeJSON(w, http.StatusOK, resp)
}

// NotFound handles 404 responses
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "endpoint_not_found", "The requested endpoint does not exist")
}

func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed on this endpoint")
}

// decodeBody reads an optional JSON body into v. An empty body leaves v
// untouched.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return badRequest("malformed body: %v", err)
	}
	return nil
}
