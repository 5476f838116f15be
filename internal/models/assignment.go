package models

import (
	"time"

	"github.com/google/uuid"
)

type Assignment struct {
	ID        uuid.UUID `json:"id"`
	DeckID    uuid.UUID `json:"deck_id"`
	ClassID   uuid.UUID `json:"class_id"`
	DueDate   time.Time `json:"due_date"`
	CreatedAt time.Time `json:"created_at"`

	// DeckName is populated by listing queries that join decks.
	DeckName string `json:"deck_name,omitempty"`
}

type CreateAssignmentRequest struct {
	DeckID  uuid.UUID `json:"deck_id"`
	ClassID uuid.UUID `json:"class_id"`
	DueDate time.Time `json:"due_date"`
}
