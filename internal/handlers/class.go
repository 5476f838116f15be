package handlers

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"deckroom-backend/internal/middleware"
	"deckroom-backend/internal/models"
	"deckroom-backend/internal/repository"
)

type ClassHandler struct {
	classRepo   *repository.ClassRepo
	studentRepo *repository.StudentRepo
}

func NewClassHandler(classRepo *repository.ClassRepo, studentRepo *repository.StudentRepo) *ClassHandler {
	return &ClassHandler{classRepo: classRepo, studentRepo: studentRepo}
}

func (h *ClassHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Class name is required", r))
		return
	}

	code, err := h.uniqueJoinCode(r)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to generate join code", r))
		return
	}

	class := &models.Class{
		Name:      req.Name,
		Code:      code,
		TeacherID: middleware.GetUserID(r.Context()),
	}

	if err := h.classRepo.Create(r.Context(), class); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create class", r))
		return
	}

	writeJSON(w, http.StatusCreated, class)
}

func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetUserID(r.Context())

	classes, err := h.classRepo.ListByTeacher(r.Context(), teacherID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch classes", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"classes": classes})
}

func (h *ClassHandler) Get(w http.ResponseWriter, r *http.Request) {
	class, ok := h.ownedClass(w, r)
	if !ok {
		return
	}

	students, _ := h.studentRepo.ListByClass(r.Context(), class.ID)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"class":    class,
		"students": students,
	})
}

func (h *ClassHandler) Rename(w http.ResponseWriter, r *http.Request) {
	class, ok := h.ownedClass(w, r)
	if !ok {
		return
	}

	var req models.CreateClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Class name is required", r))
		return
	}

	if err := h.classRepo.Rename(r.Context(), class.ID, req.Name); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to rename class", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Class renamed"})
}

// AddStudent creates a class-scoped student account. Usernames only
// need to be unique within the class.
func (h *ClassHandler) AddStudent(w http.ResponseWriter, r *http.Request) {
	class, ok := h.ownedClass(w, r)
	if !ok {
		return
	}

	var req models.AddStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Username and password are required", r))
		return
	}

	if _, err := h.studentRepo.GetByLogin(r.Context(), req.Username, class.ID); err == nil {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Username already taken in this class", r))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to hash password", r))
		return
	}

	teacherID := middleware.GetUserID(r.Context())
	student := &models.Student{
		Username:     req.Username,
		PasswordHash: string(hash),
		ClassID:      class.ID,
		TeacherID:    &teacherID,
	}

	if err := h.studentRepo.Create(r.Context(), student); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create student", r))
		return
	}

	writeJSON(w, http.StatusCreated, student)
}

func (h *ClassHandler) ownedClass(w http.ResponseWriter, r *http.Request) (*models.Class, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid class ID", r))
		return nil, false
	}

	class, err := h.classRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Class not found", r))
		return nil, false
	}

	if class.TeacherID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}
	return class, true
}

// Join codes skip easily confused characters (0/O, 1/I).
const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func (h *ClassHandler) uniqueJoinCode(r *http.Request) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		b := make([]byte, 6)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		for i := range b {
			b[i] = joinCodeAlphabet[int(b[i])%len(joinCodeAlphabet)]
		}
		code := string(b)

		exists, err := h.classRepo.CodeExists(r.Context(), code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errJoinCodeExhausted
}

var errJoinCodeExhausted = errors.New("could not generate a unique join code")
