package models

import (
	"time"

	"github.com/google/uuid"
)

type Deck struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	TeacherID uuid.UUID `json:"teacher_id"`
	CardCount int       `json:"card_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Card struct {
	ID        uuid.UUID `json:"id"`
	DeckID    uuid.UUID `json:"deck_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateDeckRequest struct {
	Name string `json:"name"`
}

type CardRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// BulkCardsRequest carries pre-parsed rows from a client-side CSV
// import; the server never sees the raw file.
type BulkCardsRequest struct {
	Cards []CardRequest `json:"cards"`
}
