// Package handlers contains the HTTP handler logic for the SkillSwap API.
//
// ────────────────────────────────────────────────────────────────────
// LEARNING NOTE — package structure
// ────────────────────────────────────────────────────────────────────
// All handler files share the same "handlers" package so they can call
// each other's helpers freely without exporting them. The files are
// split by domain (auth, users, requests, conversations, admin) purely
// for readability.
//
// The central type is Server. It holds what every handler needs: the
// store, the JWT secret, the validator and the realtime hub. Putting
// shared dependencies on a struct (instead of global variables) makes
// the code easier to test — each test creates its own Server with its
// own in-memory database and no test pollutes another.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/Elizabethomito/skillswap/backend/internal/logging"
	"github.com/Elizabethomito/skillswap/backend/internal/realtime"
	"github.com/Elizabethomito/skillswap/backend/internal/store"
	"github.com/Elizabethomito/skillswap/backend/internal/validate"
)

// maxBodyBytes caps request bodies; the largest legitimate payload is a
// full profile with forty skill descriptions.
const maxBodyBytes = 1 << 20

// Server holds shared dependencies for all handlers.
type Server struct {
	Store     store.Repository
	Secret    string
	Validator *validate.Validator
	// Hub may be nil, in which case no realtime events are sent.
	Hub    *realtime.Hub
	Logger *slog.Logger
	// Dev exposes internal error text in 500 responses and enables the
	// demo seed endpoint.
	Dev bool
}

// errorBody is the uniform error shape: a stable machine-readable code,
// a human message, and per-field details for validation failures.
type errorBody struct {
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details validate.Errors `json:"details,omitempty"`
}

// respond writes v as JSON with the given HTTP status code.
// Setting Content-Type before WriteHeader is important — once
// WriteHeader is called the headers are flushed and cannot be changed.
func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring the encode error: if the client disconnected mid-write
	// there is nothing useful we can do.
	_ = json.NewEncoder(w).Encode(body)
}

// respondError sends {"error": code, "message": msg}.
func respondError(w http.ResponseWriter, status int, code, msg string) {
	respond(w, status, errorBody{Error: code, Message: msg})
}

func respondValidation(w http.ResponseWriter, errs validate.Errors) {
	respond(w, http.StatusBadRequest, errorBody{
		Error:   "validation_error",
		Message: "one or more fields are invalid",
		Details: errs,
	})
}

// decode reads and parses a JSON request body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// decodeOptional is decode for endpoints whose body may be omitted.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) error {
	if err := decode(w, r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// check validates v plus any handler-level errors already collected in
// extra, and writes the 400 itself. It returns false when the handler
// should stop.
func (s *Server) check(w http.ResponseWriter, v any, extra validate.Errors) bool {
	errs := append(s.validator().Struct(v), extra...)
	if len(errs) > 0 {
		respondValidation(w, errs)
		return false
	}
	return true
}

// defaultValidator serves a Server built without one. Handlers run
// concurrently, so the fallback is shared rather than stored on s.
var defaultValidator = validate.New()

func (s *Server) validator() *validate.Validator {
	if s.Validator == nil {
		return defaultValidator
	}
	return s.Validator
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// fail maps a store error onto an HTTP response. Handlers check for the
// cases that need a more specific code before falling back to fail.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, store.ErrConflict):
		respondError(w, http.StatusConflict, "conflict", "resource already exists")
	case errors.Is(err, store.ErrNotPending):
		respondError(w, http.StatusBadRequest, "already_processed", "request has already been processed")
	case errors.Is(err, store.ErrUnavailable):
		s.logger().ErrorContext(r.Context(), "database unavailable", slog.String("path", r.URL.Path), logging.Err(err))
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "the service is temporarily unavailable, please retry")
	default:
		s.logger().ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), logging.Err(err))
		msg := "internal server error"
		if s.Dev {
			msg = err.Error()
		}
		respondError(w, http.StatusInternalServerError, "internal_error", msg)
	}
}

// publish forwards ev to the hub when one is configured.
func (s *Server) publish(userIDs []string, ev realtime.Event) {
	if s.Hub != nil {
		s.Hub.Publish(userIDs, ev)
	}
}

// pageParams reads ?page= and ?limit=. Missing or malformed values fall
// back to the defaults; limit is clamped to max, and page so that the
// resulting OFFSET stays within int32.
func pageParams(r *http.Request, defLimit, max int) (page, limit int) {
	page, limit = 1, defLimit
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	if limit > max {
		limit = max
	}
	if maxPage := math.MaxInt32 / max; page > maxPage {
		page = maxPage
	}
	return page, limit
}

// Health handles GET /api/health
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}
