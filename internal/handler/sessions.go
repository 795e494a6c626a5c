package handler

import (
	"log/slog"
	"net/http"

	"classledger/internal/domain/models"
	"classledger/internal/httputil"
	"classledger/internal/ledger"
)

// SessionHandler handles class session HTTP requests
type SessionHandler struct {
	stores *ledger.Manager
	coord  *ledger.Coordinator
	logger *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(stores *ledger.Manager, coord *ledger.Coordinator, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		stores: stores,
		coord:  coord,
		logger: logger,
	}
}

// ListSessions returns the filtered, sorted session ledger.
// GET /api/sessions?folder=2&student=S1&month=2024-03&sort=date&order=desc
//
// folder, student and month are optional filters; student=ALL matches
// everything. sort is "date" (default) or "created"; order is "desc"
// (default) or "asc".
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := requireUserID(w, r)
	if userID == "" {
		return
	}

	store, err := h.stores.Acquire(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	sessions := store.Sessions()

	q := r.URL.Query()
	if folder := q.Get("folder"); folder != "" {
		sessions = ledger.FilterByFolder(sessions, folder)
	}
	if student := q.Get("student"); student != "" {
		sessions = ledger.FilterByStudent(sessions, student)
	}
	if month := q.Get("month"); month != "" {
		sessions = ledger.FilterByMonth(sessions, month)
	}

	descending := q.Get("order") != "asc"
	switch q.Get("sort") {
	case "created":
		sessions = ledger.SortByInsertionTime(sessions, descending)
	default:
		sessions = ledger.SortByDate(sessions, descending)
	}

	if sessions == nil {
		sessions = []models.ClassSession{}
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions":    sessions,
		"total_hours": ledger.TotalHours(sessions),
	})
}

// LogSession logs a new class session, assigning the package number
// POST /api/sessions
func (h *SessionHandler) LogSession(w http.ResponseWriter, r *http.Request) {
	userID := requireUserID(w, r)
	if userID == "" {
		return
	}

	var req models.LogSessionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.coord.LogSession(r.Context(), userID, req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, session)
}

// UpdateSession merges partial fields into an existing session
// PATCH /api/sessions/{id}
func (h *SessionHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	userID := requireUserID(w, r)
	if userID == "" {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "session ID is required")
		return
	}

	var req models.UpdateSessionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.coord.EditSession(r.Context(), userID, id, req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, session)
}

// DeleteSession removes a single session
// DELETE /api/sessions/{id}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	userID := requireUserID(w, r)
	if userID == "" {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "session ID is required")
		return
	}

	if err := h.coord.DeleteSession(r.Context(), userID, id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BulkDeleteSessions removes many sessions atomically
// POST /api/sessions/bulk-delete
func (h *SessionHandler) BulkDeleteSessions(w http.ResponseWriter, r *http.Request) {
	userID := requireUserID(w, r)
	if userID == "" {
		return
	}

	var req models.BulkDeleteRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.coord.BulkDeleteSessions(r.Context(), userID, req.IDs); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMonths returns the distinct months with sessions, most recent first
// GET /api/months
func (h *SessionHandler) ListMonths(w http.ResponseWriter, r *http.Request) {
	userID := requireUserID(w, r)
	if userID == "" {
		return
	}

	store, err := h.stores.Acquire(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	months := ledger.AvailableMonths(store.Sessions())
	if months == nil {
		months = []string{}
	}
	httputil.RespondJSON(w, http.StatusOK, months)
}
