package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"deckroom-backend/internal/models"
	"deckroom-backend/internal/repository"
	"deckroom-backend/internal/study"
)

// ResultRetryQueue is the Redis list drained by the worker pool when a
// synchronous result write fails.
const ResultRetryQueue = "queue:result-submit"

// ResultChannelPrefix is the Redis pub/sub channel prefix for live
// assignment result events.
const ResultChannelPrefix = "assignment_results:"

// StudyService owns every in-memory study session. Sessions live only
// here: an abandoned session is simply dropped, and nothing partial is
// ever persisted. Each session has its own lock so answer/advance
// events run as atomic turns.
type StudyService struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*activeSession

	deckRepo    *repository.DeckRepo
	resultRepo  *repository.ResultRepo
	studentRepo *repository.StudentRepo
	redis       *redis.Client
}

type activeSession struct {
	mu           sync.Mutex
	session      *study.Session
	deckID       uuid.UUID
	studentID    uuid.UUID
	assignmentID *uuid.UUID
	lastActivity time.Time
}

// AnswerFeedback is what the UI needs to show after grading one answer.
// CorrectAnswer is filled so a miss can display the expected response.
type AnswerFeedback struct {
	Graded        bool   `json:"graded"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
}

// AdvanceOutcome reports the state after moving to the next card. When
// the advance completed the session, Summary is set and ResultSaved /
// Warning describe the scoring sink hand-off.
type AdvanceOutcome struct {
	View        study.View     `json:"view"`
	Summary     *study.Summary `json:"summary,omitempty"`
	ResultSaved bool           `json:"result_saved"`
	Warning     string         `json:"warning,omitempty"`
}

func NewStudyService(
	deckRepo *repository.DeckRepo,
	resultRepo *repository.ResultRepo,
	studentRepo *repository.StudentRepo,
	redisClient *redis.Client,
) *StudyService {
	return &StudyService{
		sessions:    make(map[uuid.UUID]*activeSession),
		deckRepo:    deckRepo,
		resultRepo:  resultRepo,
		studentRepo: studentRepo,
		redis:       redisClient,
	}
}

// Start fetches the deck's cards and opens a new session positioned on
// the first shuffled card. A card-source failure creates no session. An
// empty deck yields an immediately completed session; no result is
// persisted for it.
func (s *StudyService) Start(ctx context.Context, studentID uuid.UUID, req models.StartSessionRequest) (uuid.UUID, study.View, error) {
	if _, err := s.deckRepo.GetByID(ctx, req.DeckID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, study.View{}, &NotFoundError{Message: "Deck not found"}
		}
		return uuid.Nil, study.View{}, fmt.Errorf("failed to load deck: %w", err)
	}

	cards, err := s.deckRepo.ListCards(ctx, req.DeckID)
	if err != nil {
		return uuid.Nil, study.View{}, fmt.Errorf("failed to load cards: %w", err)
	}

	engineCards := make([]study.Card, len(cards))
	for i, c := range cards {
		engineCards[i] = study.Card{ID: c.ID, Question: c.Question, Answer: c.Answer}
	}

	sess := study.NewSession(engineCards, study.SessionConfig{})

	id := uuid.New()
	s.mu.Lock()
	s.sessions[id] = &activeSession{
		session:      sess,
		deckID:       req.DeckID,
		studentID:    studentID,
		assignmentID: req.AssignmentID,
		lastActivity: time.Now(),
	}
	s.mu.Unlock()

	return id, sess.Snapshot(), nil
}

// Get returns the current observable state of a session.
func (s *StudyService) Get(sessionID, studentID uuid.UUID) (study.View, error) {
	as, err := s.lookup(sessionID, studentID)
	if err != nil {
		return study.View{}, err
	}
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.session.Snapshot(), nil
}

// SubmitAnswer grades one answer against the current card. A blank
// answer is a no-op: the view comes back ungraded and unchanged.
func (s *StudyService) SubmitAnswer(sessionID, studentID uuid.UUID, answer string) (AnswerFeedback, study.View, error) {
	as, err := s.lookup(sessionID, studentID)
	if err != nil {
		return AnswerFeedback{}, study.View{}, err
	}

	as.mu.Lock()
	defer as.mu.Unlock()
	as.lastActivity = time.Now()

	res, err := as.session.Submit(answer)
	if err != nil {
		switch {
		case errors.Is(err, study.ErrEmptyAnswer):
			return AnswerFeedback{}, as.session.Snapshot(), nil
		case errors.Is(err, study.ErrSessionComplete):
			return AnswerFeedback{}, study.View{}, &ConflictError{Message: "Session is already complete"}
		default:
			return AnswerFeedback{}, study.View{}, err
		}
	}

	fb := AnswerFeedback{Graded: true, Correct: res.Correct}
	if !res.Correct {
		fb.CorrectAnswer = res.Answer
	}
	return fb, as.session.Snapshot(), nil
}

// Advance moves to the next card, or completes the session when no
// cards remain. On completion the result is handed to the scoring sink
// exactly once; a sink failure is downgraded to a warning and the
// payload is queued for the background worker to retry.
func (s *StudyService) Advance(ctx context.Context, sessionID, studentID uuid.UUID) (AdvanceOutcome, error) {
	as, err := s.lookup(sessionID, studentID)
	if err != nil {
		return AdvanceOutcome{}, err
	}

	as.mu.Lock()
	defer as.mu.Unlock()
	as.lastActivity = time.Now()

	as.session.Advance()
	out := AdvanceOutcome{View: as.session.Snapshot()}

	if !as.session.Completed() {
		return out, nil
	}

	sum, _ := as.session.Summary()
	out.Summary = &sum

	// Free practice and empty decks are never persisted; ClaimResult
	// keeps redundant advance calls from double-submitting.
	if as.assignmentID == nil || sum.TotalAttempts == 0 || !as.session.ClaimResult() {
		return out, nil
	}

	result := &models.StudyResult{
		AssignmentID:  *as.assignmentID,
		StudentID:     as.studentID,
		ScorePercent:  sum.ScorePercent,
		TimeSeconds:   sum.ElapsedSeconds,
		TotalAttempts: sum.TotalAttempts,
		CompletedAt:   time.Now(),
	}

	if err := s.resultRepo.Create(ctx, result); err != nil {
		log.Printf("Failed to save study result for session %s: %v", sessionID, err)
		if qErr := s.enqueueRetry(ctx, result); qErr != nil {
			// Nothing accepted the result; release the claim so the
			// caller can retry through SubmitResult.
			as.session.ReleaseClaim()
			out.Warning = "Your score could not be saved. Try again in a moment."
			return out, nil
		}
		out.Warning = "Your score is queued and will be saved shortly."
		return out, nil
	}

	out.ResultSaved = true
	s.publishResult(ctx, result)
	return out, nil
}

// Summary recomputes the final score of a completed session. Values are
// pure functions of final card state, so calling it repeatedly is safe.
func (s *StudyService) Summary(sessionID, studentID uuid.UUID) (study.Summary, error) {
	as, err := s.lookup(sessionID, studentID)
	if err != nil {
		return study.Summary{}, err
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	sum, ok := as.session.Summary()
	if !ok {
		return study.Summary{}, &ConflictError{Message: "Session is not complete yet"}
	}
	return sum, nil
}

// SubmitResult retries scoring-sink emission after an earlier failure.
func (s *StudyService) SubmitResult(ctx context.Context, sessionID, studentID uuid.UUID) (*models.StudyResult, error) {
	as, err := s.lookup(sessionID, studentID)
	if err != nil {
		return nil, err
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	sum, ok := as.session.Summary()
	if !ok {
		return nil, &ConflictError{Message: "Session is not complete yet"}
	}
	if as.assignmentID == nil {
		return nil, &ConflictError{Message: "Free practice sessions are not persisted"}
	}
	if sum.TotalAttempts == 0 {
		return nil, &ConflictError{Message: "Empty sessions are not persisted"}
	}
	if !as.session.ClaimResult() {
		return nil, &ConflictError{Message: "Result already submitted"}
	}

	result := &models.StudyResult{
		AssignmentID:  *as.assignmentID,
		StudentID:     as.studentID,
		ScorePercent:  sum.ScorePercent,
		TimeSeconds:   sum.ElapsedSeconds,
		TotalAttempts: sum.TotalAttempts,
		CompletedAt:   time.Now(),
	}

	if err := s.resultRepo.Create(ctx, result); err != nil {
		as.session.ReleaseClaim()
		return nil, fmt.Errorf("failed to save result: %w", err)
	}

	s.publishResult(ctx, result)
	return result, nil
}

// Abandon discards a session without persisting anything.
func (s *StudyService) Abandon(sessionID, studentID uuid.UUID) error {
	if _, err := s.lookup(sessionID, studentID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// Sweep evicts sessions idle longer than maxIdle and returns how many
// were dropped. The worker pool calls this periodically.
func (s *StudyService) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, as := range s.sessions {
		as.mu.Lock()
		idle := time.Since(as.lastActivity)
		as.mu.Unlock()
		if idle > maxIdle {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// ActiveCount reports the number of live sessions.
func (s *StudyService) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *StudyService) lookup(sessionID, studentID uuid.UUID) (*activeSession, error) {
	s.mu.Lock()
	as, ok := s.sessions[sessionID]
	s.mu.Unlock()

	if !ok {
		return nil, &NotFoundError{Message: "Study session not found"}
	}
	if as.studentID != studentID {
		return nil, &ForbiddenError{Message: "Access denied"}
	}
	return as, nil
}

func (s *StudyService) enqueueRetry(ctx context.Context, result *models.StudyResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.redis.LPush(ctx, ResultRetryQueue, string(payload)).Err()
}

func (s *StudyService) publishResult(ctx context.Context, result *models.StudyResult) {
	PublishResultEvent(ctx, s.redis, s.studentRepo, result)
}

// PublishResultEvent pushes a leaderboard update onto the assignment's
// pub/sub channel. The worker pool reuses it after a queued retry.
func PublishResultEvent(ctx context.Context, rdb *redis.Client, studentRepo *repository.StudentRepo, result *models.StudyResult) {
	username := ""
	if student, err := studentRepo.GetByID(ctx, result.StudentID); err == nil {
		username = student.Username
	}

	event := map[string]interface{}{
		"type":          "result_submitted",
		"assignment_id": result.AssignmentID,
		"student_id":    result.StudentID,
		"username":      username,
		"score_percent": result.ScorePercent,
		"time_seconds":  result.TimeSeconds,
		"completed_at":  result.CompletedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	channel := ResultChannelPrefix + result.AssignmentID.String()
	if err := rdb.Publish(ctx, channel, string(payload)).Err(); err != nil {
		log.Printf("Failed to publish result event: %v", err)
	}
}
