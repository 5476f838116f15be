package study

import (
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionConfig configures a Session. Zero values produce sensible
// defaults: a time-seeded random source and the wall clock.
type SessionConfig struct {
	Rand *rand.Rand       // nil → time-seeded source
	Now  func() time.Time // nil → time.Now
}

// Session drives one study pass over a fixed set of cards. It owns all
// per-card state, selects which card to present next, and computes the
// final score. Sessions are not safe for concurrent use; callers must
// serialize events.
type Session struct {
	cards  []Card
	states []*CardState

	current      int // index into cards, -1 when no card is active
	totalCorrect int

	startedAt   time.Time
	completedAt *time.Time
	claimed     bool

	rng *rand.Rand
	now func() time.Time
}

// Result is the graded outcome of one answer submission. Answer carries
// the canonical answer so the caller can show feedback on a miss.
type Result struct {
	Correct bool
	Answer  string
}

// Summary is the final outcome of a completed session. Its values are
// pure functions of the finished card states, so recomputing it is safe.
type Summary struct {
	ScorePercent   int `json:"score_percent"`
	ElapsedSeconds int `json:"elapsed_seconds"`
	TotalAttempts  int `json:"total_attempts"`
	TotalCorrect   int `json:"total_correct"`
}

// View is the observable slice of session state needed to render a turn.
// It never exposes the canonical answer of the current card.
type View struct {
	Completed bool      `json:"completed"`
	CardID    uuid.UUID `json:"card_id,omitempty"`
	Question  string    `json:"question,omitempty"`
	Total     int       `json:"total_cards"`
	Mastered  int       `json:"mastered_cards"`
}

// NewSession shuffles the given cards into a random presentation order
// and returns a session positioned on the first card. An empty card set
// is valid and yields a session that is already complete.
func NewSession(cards []Card, cfg SessionConfig) *Session {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	shuffled := make([]Card, len(cards))
	copy(shuffled, cards)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	s := &Session{
		cards:     shuffled,
		states:    make([]*CardState, len(shuffled)),
		current:   -1,
		startedAt: now(),
		rng:       rng,
		now:       now,
	}
	for i, c := range shuffled {
		s.states[i] = &CardState{CardID: c.ID}
	}

	if len(shuffled) == 0 {
		done := s.startedAt
		s.completedAt = &done
	} else {
		s.current = 0
	}
	return s
}

// Current returns the card being presented. ok is false once the
// session is complete.
func (s *Session) Current() (Card, bool) {
	if s.current < 0 {
		return Card{}, false
	}
	return s.cards[s.current], true
}

// Completed reports whether every card has been mastered.
func (s *Session) Completed() bool {
	return s.completedAt != nil
}

// Submit grades the given free-text answer against the current card.
// Grading is whitespace-trimmed, case-insensitive exact equality. The
// current card does not change; callers advance explicitly so feedback
// can be shown first.
func (s *Session) Submit(answer string) (Result, error) {
	if s.current < 0 {
		return Result{}, ErrSessionComplete
	}
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return Result{}, ErrEmptyAnswer
	}

	card := s.cards[s.current]
	st := s.states[s.current]

	correct := strings.EqualFold(trimmed, strings.TrimSpace(card.Answer))
	if correct {
		st.ConsecutiveCorrect++
		if st.ConsecutiveCorrect >= MasteryThreshold {
			st.Complete = true
		}
		st.Priority = false
		s.totalCorrect++
	} else {
		st.ConsecutiveCorrect = 0
		st.Priority = true
	}
	st.TimesSeen++

	return Result{Correct: correct, Answer: card.Answer}, nil
}

// Advance moves to the next card after feedback has been shown. It
// returns false when no cards remain, at which point the session is
// complete and the summary becomes available.
//
// Selection: priority cards (last answer wrong) are drawn first, the
// just-answered card is excluded whenever another pending card exists,
// and an immediate repeat is allowed only when unavoidable. A lone
// priority card that is also the previous card does not force a repeat;
// the other pending cards get a turn instead.
func (s *Session) Advance() bool {
	if s.completedAt != nil {
		return false
	}
	prev := s.current

	var pending []int
	for i, st := range s.states {
		if !st.Complete {
			pending = append(pending, i)
		}
	}

	if len(pending) == 0 {
		s.current = -1
		done := s.now()
		s.completedAt = &done
		return false
	}

	if len(pending) == 1 {
		s.current = pending[0]
		return true
	}

	var priority []int
	for _, i := range pending {
		if s.states[i].Priority {
			priority = append(priority, i)
		}
	}

	if len(priority) == 1 && priority[0] == prev {
		// The only missed card was just answered; give the rest of the
		// pending set a turn rather than drilling it immediately.
		s.current = s.pick(exclude(pending, prev))
		return true
	}

	pool := priority
	if len(pool) == 0 {
		pool = pending
	}
	candidates := exclude(pool, prev)
	if len(candidates) == 0 {
		candidates = pool
	}
	s.current = s.pick(candidates)
	return true
}

// Summary returns the final score and timing. ok is false until the
// session completes.
func (s *Session) Summary() (Summary, bool) {
	if s.completedAt == nil {
		return Summary{}, false
	}

	attempts := 0
	for _, st := range s.states {
		attempts += st.TimesSeen
	}

	score := 0
	if attempts > 0 {
		score = int(math.Round(100 * float64(s.totalCorrect) / float64(attempts)))
	}

	return Summary{
		ScorePercent:   score,
		ElapsedSeconds: int(s.completedAt.Sub(s.startedAt).Seconds()),
		TotalAttempts:  attempts,
		TotalCorrect:   s.totalCorrect,
	}, true
}

// ClaimResult returns true exactly once per completed session. It guards
// against submitting the same result to the scoring sink twice.
func (s *Session) ClaimResult() bool {
	if s.completedAt == nil || s.claimed {
		return false
	}
	s.claimed = true
	return true
}

// ReleaseClaim undoes ClaimResult so a failed sink submission can be
// retried later.
func (s *Session) ReleaseClaim() {
	s.claimed = false
}

// Snapshot returns the observable state for rendering a turn.
func (s *Session) Snapshot() View {
	v := View{
		Completed: s.completedAt != nil,
		Total:     len(s.cards),
	}
	for _, st := range s.states {
		if st.Complete {
			v.Mastered++
		}
	}
	if s.current >= 0 {
		v.CardID = s.cards[s.current].ID
		v.Question = s.cards[s.current].Question
	}
	return v
}

// StartedAt reports when the first card was loaded.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

func (s *Session) pick(candidates []int) int {
	return candidates[s.rng.Intn(len(candidates))]
}

func exclude(pool []int, skip int) []int {
	out := make([]int, 0, len(pool))
	for _, i := range pool {
		if i != skip {
			out = append(out, i)
		}
	}
	return out
}
