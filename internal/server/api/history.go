package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/rangoli/internal/store"
)

// DefaultHistoryLimit caps list responses when no limit is given.
const DefaultHistoryLimit = 50

// HistoryHandler serves the export and notification history:
//
//	GET /api/exports
//	GET /api/exports/{id}
//	GET /api/notifications?category=&limit=
type HistoryHandler struct {
	store *store.Store
}

// NewHistoryHandler creates a new HistoryHandler with the given store.
func NewHistoryHandler(s *store.Store) *HistoryHandler {
	return &HistoryHandler{store: s}
}

// Register adds the handler's routes to mux.
func (h *HistoryHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/exports", h.exports)
	mux.HandleFunc("/api/exports/", h.exports)
	mux.HandleFunc("/api/notifications", h.notifications)
}

type listExportsResponse struct {
	Exports []*store.Export `json:"exports"`
}

type listNotificationsResponse struct {
	Notifications []*store.Notification `json:"notifications"`
}

// limitParam reads ?limit=, falling back to DefaultHistoryLimit.
func limitParam(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return DefaultHistoryLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (h *HistoryHandler) exports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/exports"), "/")
	if id != "" {
		e, err := h.store.Exports().Get(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "export not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to get export")
			return
		}
		writeJSON(w, http.StatusOK, e)
		return
	}

	limit, ok := limitParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	exports, err := h.store.Exports().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list exports")
		return
	}
	writeJSON(w, http.StatusOK, listExportsResponse{Exports: exports})
}

func (h *HistoryHandler) notifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit, ok := limitParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	list, err := h.store.Notifications().Recent(r.URL.Query().Get("category"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	writeJSON(w, http.StatusOK, listNotificationsResponse{Notifications: list})
}
