package handler

import (
	"log/slog"
	"net/http"

	"classledger/internal/domain/models"
	"classledger/internal/httputil"
	"classledger/internal/ledger"
)

// StudentHandler handles student HTTP requests
type StudentHandler struct {
	stores *ledger.Manager
	coord  *ledger.Coordinator
	logger *slog.Logger
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(stores *ledger.Manager, coord *ledger.Coordinator, logger *slog.Logger) *StudentHandler {
	return &StudentHandler{
		stores: stores,
		coord:  coord,
		logger: logger,
	}
}

// ListStudents returns all students for the signed-in user
// GET /api/students
func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	userID := requireUserID(w, r)
	if userID == "" {
		return
	}

	store, err := h.stores.Acquire(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	students := store.Students()
	if students == nil {
		students = []models.Student{}
	}
	httputil.RespondJSON(w, http.StatusOK, students)
}

// CreateStudent adds a new student
// POST /api/students
func (h *StudentHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	userID := requireUserID(w, r)
	if userID == "" {
		return
	}

	var req models.CreateStudentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	student, err := h.coord.AddStudent(r.Context(), userID, req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, student)
}

// DeleteStudent removes a student and cascades to their sessions
// DELETE /api/students/{id}
func (h *StudentHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	userID := requireUserID(w, r)
	if userID == "" {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "student ID is required")
		return
	}

	if err := h.coord.DeleteStudent(r.Context(), userID, id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListStudentSessions returns one student's sessions
// GET /api/students/{id}/sessions
func (h *StudentHandler) ListStudentSessions(w http.ResponseWriter, r *http.Request) {
	userID := requireUserID(w, r)
	if userID == "" {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "student ID is required")
		return
	}

	store, err := h.stores.Acquire(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	sessions := ledger.FilterByStudent(store.Sessions(), id)
	if sessions == nil {
		sessions = []models.ClassSession{}
	}
	httputil.RespondJSON(w, http.StatusOK, sessions)
}
