package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/satheeshds/invoicehub/auth"
	"github.com/satheeshds/invoicehub/ledger"
)

// Response is the standard JSON envelope for all API responses.
type Response struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

// Handler serves the HTTP API on top of the ledger service.
type Handler struct {
	svc    *ledger.Service
	tokens *auth.Issuer
	apiKey string
	log    *slog.Logger
}

// New returns a Handler. An empty apiKey disables the maintenance
// endpoints.
func New(svc *ledger.Service, tokens *auth.Issuer, apiKey string, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, tokens: tokens, apiKey: apiKey, log: logger.With("component", "http")}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Data: data})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Error: msg})
}

// writeServiceError maps a ledger error to its status code. Anything that
// is not a ledger error is logged and hidden behind a 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var lerr *ledger.Error
	if !errors.As(err, &lerr) {
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, lerr.Msg)
	case errors.Is(err, ledger.ErrPermission):
		writeError(w, http.StatusForbidden, lerr.Msg)
	case errors.Is(err, ledger.ErrConsistency):
		writeError(w, http.StatusConflict, lerr.Msg)
	default:
		writeError(w, http.StatusBadRequest, lerr.Msg)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// pageParams reads page (zero-based, default 0) and size (default 50).
func pageParams(w http.ResponseWriter, r *http.Request) (page, size int, ok bool) {
	page, size = 0, 50
	var err error
	if v := r.URL.Query().Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "page must be a number")
			return 0, 0, false
		}
	}
	if v := r.URL.Query().Get("size"); v != "" {
		if size, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "size must be a number")
			return 0, 0, false
		}
	}
	return page, size, true
}

type ctxKey struct{}

// Authenticate is middleware that requires a valid bearer token and puts the
// caller's user id on the request context.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		userID, err := h.tokens.Verify(token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, userID)))
	})
}

// RequireAPIKey is middleware for maintenance endpoints called by
// schedulers. The key is sent in the X-KEY header.
func (h *Handler) RequireAPIKey(next http.Handler) http.Handler {
	if h.apiKey == "" {
		h.log.Warn("API_KEY not set, maintenance endpoints are disabled")
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.apiKey == "" || r.Header.Get("X-KEY") != h.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser returns the id stored by Authenticate.
func currentUser(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(ctxKey{}).(uuid.UUID)
	return id
}
