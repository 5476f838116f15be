package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"deckroom-backend/internal/middleware"
	"deckroom-backend/internal/models"
	"deckroom-backend/internal/repository"
)

type AssignmentHandler struct {
	assignmentRepo *repository.AssignmentRepo
	deckRepo       *repository.DeckRepo
	classRepo      *repository.ClassRepo
	studentRepo    *repository.StudentRepo
	resultRepo     *repository.ResultRepo
}

func NewAssignmentHandler(
	assignmentRepo *repository.AssignmentRepo,
	deckRepo *repository.DeckRepo,
	classRepo *repository.ClassRepo,
	studentRepo *repository.StudentRepo,
	resultRepo *repository.ResultRepo,
) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentRepo: assignmentRepo,
		deckRepo:       deckRepo,
		classRepo:      classRepo,
		studentRepo:    studentRepo,
		resultRepo:     resultRepo,
	}
}

// Create assigns a deck to a class. Both must belong to the teacher.
func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.DeckID == uuid.Nil || req.ClassID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "deck_id and class_id are required", r))
		return
	}
	if req.DueDate.IsZero() {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "due_date is required", r))
		return
	}

	teacherID := middleware.GetUserID(r.Context())

	deck, err := h.deckRepo.GetByID(r.Context(), req.DeckID)
	if err != nil || deck.TeacherID != teacherID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Deck not found", r))
		return
	}
	if deck.CardCount == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Cannot assign an empty deck", r))
		return
	}

	class, err := h.classRepo.GetByID(r.Context(), req.ClassID)
	if err != nil || class.TeacherID != teacherID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Class not found", r))
		return
	}

	assignment := &models.Assignment{
		DeckID:  req.DeckID,
		ClassID: req.ClassID,
		DueDate: req.DueDate,
	}

	if err := h.assignmentRepo.Create(r.Context(), assignment); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create assignment", r))
		return
	}

	assignment.DeckName = deck.Name
	writeJSON(w, http.StatusCreated, assignment)
}

func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetUserID(r.Context())

	assignments, err := h.assignmentRepo.ListByTeacher(r.Context(), teacherID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch assignments", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"assignments": assignments})
}

func (h *AssignmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	assignment, ok := h.ownedAssignment(w, r)
	if !ok {
		return
	}

	if err := h.assignmentRepo.Delete(r.Context(), assignment.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete assignment", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Assignment deleted"})
}

// ListForStudent returns the student's class assignments split into
// current and past by due date, with the student's best score attached
// where one exists.
func (h *AssignmentHandler) ListForStudent(w http.ResponseWriter, r *http.Request) {
	studentID := middleware.GetUserID(r.Context())

	student, err := h.studentRepo.GetByID(r.Context(), studentID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Student not found", r))
		return
	}

	assignments, err := h.assignmentRepo.ListByClass(r.Context(), student.ClassID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch assignments", r))
		return
	}

	results, err := h.resultRepo.ListByStudent(r.Context(), studentID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch results", r))
		return
	}

	bestScores := make(map[uuid.UUID]int)
	for _, res := range results {
		if best, ok := bestScores[res.AssignmentID]; !ok || res.ScorePercent > best {
			bestScores[res.AssignmentID] = res.ScorePercent
		}
	}

	type studentAssignment struct {
		*models.Assignment
		BestScore *int `json:"best_score,omitempty"`
	}

	now := time.Now()
	current := []studentAssignment{}
	past := []studentAssignment{}
	for _, a := range assignments {
		sa := studentAssignment{Assignment: a}
		if score, ok := bestScores[a.ID]; ok {
			sa.BestScore = &score
		}
		if a.DueDate.After(now) {
			current = append(current, sa)
		} else {
			past = append(past, sa)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"current": current,
		"past":    past,
	})
}

func (h *AssignmentHandler) ownedAssignment(w http.ResponseWriter, r *http.Request) (*models.Assignment, bool) {
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

	class, err := h.classRepo.GetByID(r.Context(), assignment.ClassID)
	if err != nil || class.TeacherID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}
	return assignment, true
}
