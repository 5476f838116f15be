package models

import (
	"time"

	"github.com/google/uuid"
)

// Student belongs to exactly one class and signs in with the class join
// code instead of an email address.
type Student struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	ClassID      uuid.UUID  `json:"class_id"`
	TeacherID    *uuid.UUID `json:"teacher_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type AddStudentRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type StudentLoginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	ClassCode string `json:"class_code"`
}
