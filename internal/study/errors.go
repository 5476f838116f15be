package study

import "errors"

var (
	// ErrSessionComplete is returned when an answer is submitted after
	// every card has been mastered.
	ErrSessionComplete = errors.New("study: session already complete")

	// ErrEmptyAnswer is returned when the submitted answer is empty after
	// trimming whitespace. No state changes; callers treat it as a no-op.
	ErrEmptyAnswer = errors.New("study: empty answer")
)
