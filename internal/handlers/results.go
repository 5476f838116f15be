package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"deckroom-backend/internal/middleware"
	"deckroom-backend/internal/models"
	"deckroom-backend/internal/repository"
)

type ResultHandler struct {
	resultRepo     *repository.ResultRepo
	assignmentRepo *repository.AssignmentRepo
	classRepo      *repository.ClassRepo
	studentRepo    *repository.StudentRepo
}

func NewResultHandler(
	resultRepo *repository.ResultRepo,
	assignmentRepo *repository.AssignmentRepo,
	classRepo *repository.ClassRepo,
	studentRepo *repository.StudentRepo,
) *ResultHandler {
	return &ResultHandler{
		resultRepo:     resultRepo,
		assignmentRepo: assignmentRepo,
		classRepo:      classRepo,
		studentRepo:    studentRepo,
	}
}

// Leaderboard lists an assignment's results best-first. Teachers must
// own the class; students must be in it.
func (h *ResultHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	assignment, ok := h.visibleAssignment(w, r)
	if !ok {
		return
	}

	results, err := h.resultRepo.ListByAssignment(r.Context(), assignment.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch leaderboard", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"assignment": assignment,
		"results":    results,
	})
}

// Stats aggregates an assignment's results for the teacher view.
func (h *ResultHandler) Stats(w http.ResponseWriter, r *http.Request) {
	assignment, ok := h.visibleAssignment(w, r)
	if !ok {
		return
	}

	if middleware.GetRole(r.Context()) != middleware.RoleTeacher {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	stats, err := h.resultRepo.StatsByAssignment(r.Context(), assignment.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch stats", r))
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// MyResults lists the authenticated student's past results, newest
// first.
func (h *ResultHandler) MyResults(w http.ResponseWriter, r *http.Request) {
	studentID := middleware.GetUserID(r.Context())

	results, err := h.resultRepo.ListByStudent(r.Context(), studentID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch results", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (h *ResultHandler) visibleAssignment(w http.ResponseWriter, r *http.Request) (*models.Assignment, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid assignment ID", r))
		return nil, false
	}

	assignment, err := h.assignmentRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Assignment not found", r))
		return nil, false
	}

	subjectID := middleware.GetUserID(r.Context())

	switch middleware.GetRole(r.Context()) {
	case middleware.RoleTeacher:
		class, err := h.classRepo.GetByID(r.Context(), assignment.ClassID)
		if err != nil || class.TeacherID != subjectID {
			writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
			return nil, false
		}
	case middleware.RoleStudent:
		student, err := h.studentRepo.GetByID(r.Context(), subjectID)
		if err != nil || student.ClassID != assignment.ClassID {
			writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
			return nil, false
		}
	default:
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}

	return assignment, true
}
