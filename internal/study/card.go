package study

import "github.com/google/uuid"

// Card is one immutable question/answer pair supplied by the deck at
// session start. The engine never interprets the text beyond grading.
type Card struct {
	ID       uuid.UUID
	Question string
	Answer   string
}

// MasteryThreshold is the number of consecutive correct answers that
// retires a card for the rest of the session.
const MasteryThreshold = 3

// CardState tracks one card's progress within a single session.
type CardState struct {
	CardID             uuid.UUID
	ConsecutiveCorrect int
	Priority           bool
	Complete           bool
	TimesSeen          int
}
