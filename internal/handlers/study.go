package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"deckroom-backend/internal/middleware"
	"deckroom-backend/internal/models"
	"deckroom-backend/internal/repository"
	"deckroom-backend/internal/services"
)

type StudyHandler struct {
	studyService   *services.StudyService
	assignmentRepo *repository.AssignmentRepo
	studentRepo    *repository.StudentRepo
}

func NewStudyHandler(
	studyService *services.StudyService,
	assignmentRepo *repository.AssignmentRepo,
	studentRepo *repository.StudentRepo,
) *StudyHandler {
	return &StudyHandler{
		studyService:   studyService,
		assignmentRepo: assignmentRepo,
		studentRepo:    studentRepo,
	}
}

// Start opens a session. With an assignment_id the assignment must
// belong to the student's class and reference the requested deck;
// without one the session is free practice and never persisted.
func (h *StudyHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.DeckID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "deck_id is required", r))
		return
	}

	studentID := middleware.GetUserID(r.Context())

	if req.AssignmentID != nil {
		assignment, err := h.assignmentRepo.GetByID(r.Context(), *req.AssignmentID)
		if err != nil {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Assignment not found", r))
			return
		}
		if assignment.DeckID != req.DeckID {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Assignment does not reference this deck", r))
			return
		}
		student, err := h.studentRepo.GetByID(r.Context(), studentID)
		if err != nil || student.ClassID != assignment.ClassID {
			writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Assignment is not for your class", r))
			return
		}
	}

	sessionID, view, err := h.studyService.Start(r.Context(), studentID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session_id": sessionID,
		"view":       view,
	})
}

func (h *StudyHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionParam(w, r)
	if !ok {
		return
	}

	view, err := h.studyService.Get(sessionID, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"view": view})
}

func (h *StudyHandler) Answer(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionParam(w, r)
	if !ok {
		return
	}

	var req models.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	feedback, view, err := h.studyService.SubmitAnswer(sessionID, middleware.GetUserID(r.Context()), req.Answer)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"feedback": feedback,
		"view":     view,
	})
}

func (h *StudyHandler) Advance(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionParam(w, r)
	if !ok {
		return
	}

	outcome, err := h.studyService.Advance(r.Context(), sessionID, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

func (h *StudyHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionParam(w, r)
	if !ok {
		return
	}

	summary, err := h.studyService.Summary(sessionID, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"summary": summary})
}

// SubmitResult retries persisting a completed session's score after a
// failed automatic save.
func (h *StudyHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionParam(w, r)
	if !ok {
		return
	}

	result, err := h.studyService.SubmitResult(r.Context(), sessionID, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *StudyHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionParam(w, r)
	if !ok {
		return
	}

	if err := h.studyService.Abandon(sessionID, middleware.GetUserID(r.Context())); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Session abandoned"})
}

func sessionParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return uuid.Nil, false
	}
	return id, true
}
