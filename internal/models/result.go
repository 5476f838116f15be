package models

import (
	"time"

	"github.com/google/uuid"
)

// StudyResult is the persisted outcome of one completed study session
// run in an assignment context. Free practice is never persisted.
type StudyResult struct {
	ID            uuid.UUID `json:"id"`
	AssignmentID  uuid.UUID `json:"assignment_id"`
	StudentID     uuid.UUID `json:"student_id"`
	ScorePercent  int       `json:"score_percent"`
	TimeSeconds   int       `json:"time_seconds"`
	TotalAttempts int       `json:"total_attempts"`
	CompletedAt   time.Time `json:"completed_at"`
	CreatedAt     time.Time `json:"created_at"`

	// Username is populated by leaderboard queries that join students.
	Username string `json:"username,omitempty"`
}

// AssignmentStats aggregates results for the teacher analytics view.
type AssignmentStats struct {
	Attempts          int     `json:"attempts"`
	AverageScore      float64 `json:"average_score"`
	BestScore         int     `json:"best_score"`
	StudentsCompleted int     `json:"students_completed"`
	ClassSize         int     `json:"class_size"`
}

type StartSessionRequest struct {
	DeckID       uuid.UUID  `json:"deck_id"`
	AssignmentID *uuid.UUID `json:"assignment_id,omitempty"`
}

type AnswerRequest struct {
	Answer string `json:"answer"`
}
