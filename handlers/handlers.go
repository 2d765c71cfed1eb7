// Package handlers exposes the journal over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"vociary/errs"
	appmw "vociary/middleware"
	"vociary/service"
)

const fallbackHeader = "X-Reflection-Fallback"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	accounts      *service.Accounts
	journal       *service.Journal
	db            Pinger
	log           *zap.Logger
	maxAudioBytes int64
	now           func() time.Time
}

func New(accounts *service.Accounts, journal *service.Journal, db Pinger, log *zap.Logger, maxAudioBytes int64) *Handler {
	return &Handler{
		accounts:      accounts,
		journal:       journal,
		db:            db,
		log:           log,
		maxAudioBytes: maxAudioBytes,
		now:           time.Now,
	}
}

// Mount registers every route on r. API routes live under prefix, e.g. /api/v1.
func (h *Handler) Mount(r chi.Router, prefix string) {
	r.Get("/health", h.Health)

	r.Route(prefix, func(r chi.Router) {
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(appmw.RequireAuth(h.accounts))

			r.Post("/entries/process_audio", h.ProcessAudio)
			r.Post("/entries/commit", h.Commit)
			r.Post("/entries/refine", h.Refine)
			r.Get("/entries/history", h.History)
			r.Post("/entries/reflect/{entryID}", h.Reflect)
			r.Get("/entries/{date}", h.EntriesByDate)

			r.Get("/diaries", h.ListDiaries)
			r.Post("/diaries", h.CreateDiary)
		})
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.log.Error("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps service errors to a status code and a {"detail": ...} body.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrAlreadyExists):
		writeDetail(w, http.StatusBadRequest, "Email or username already registered")
	case errors.Is(err, errs.ErrUnauthorized):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
	case errors.Is(err, errs.ErrForbidden):
		writeDetail(w, http.StatusForbidden, "Not authorized to access this resource")
	case errors.Is(err, errs.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found")
	case errors.Is(err, errs.ErrConflict):
		writeDetail(w, http.StatusConflict, "Entry was created concurrently, retry the request")
	case errors.Is(err, errs.ErrUpstream):
		h.log.Warn("upstream failure", zap.String("path", r.URL.Path), zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, err.Error())
	default:
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", errs.ErrValidation)
	}
	return nil
}
