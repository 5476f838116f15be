package study

import (
	"testing"
	"time"
)

// finish answers every remaining card correctly until the session
// completes.
func finish(t *testing.T, s *Session) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		cur, ok := s.Current()
		if !ok {
			return
		}
		if _, err := s.Submit(cur.Answer); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		s.Advance()
	}
	t.Fatal("session did not complete")
}

func TestSingleCardPerfectRun(t *testing.T) {
	s := NewSession(makeCards(1), seededCfg(1))

	answers := 0
	for !s.Completed() {
		cur, _ := s.Current()
		s.Submit(cur.Answer)
		answers++
		s.Advance()
	}

	if answers != MasteryThreshold {
		t.Errorf("completed after %d answers, want %d", answers, MasteryThreshold)
	}
	sum, ok := s.Summary()
	if !ok {
		t.Fatal("summary unavailable after completion")
	}
	if sum.ScorePercent != 100 {
		t.Errorf("ScorePercent = %d, want 100", sum.ScorePercent)
	}
	if sum.TotalAttempts != MasteryThreshold {
		t.Errorf("TotalAttempts = %d, want %d", sum.TotalAttempts, MasteryThreshold)
	}
}

func TestSessionNotCompleteWithCardPending(t *testing.T) {
	s := NewSession(makeCards(2), seededCfg(3))
	first, _ := s.Current()
	masterCurrent(t, s)

	if s.Completed() {
		t.Fatal("session complete while the second card is pending")
	}
	cur, ok := s.Current()
	if !ok {
		t.Fatal("expected a current card")
	}
	if cur.ID == first.ID {
		t.Error("mastered card re-selected while another card is pending")
	}
}

func TestScoreAfterOneMissPerCard(t *testing.T) {
	// Miss each of two cards once, then answer everything correctly:
	// each card is seen 4 times (1 wrong + 3 right), 6 correct out of 8
	// attempts rounds to 75.
	s := NewSession(makeCards(2), seededCfg(5))

	s.Submit("wrong")
	s.Advance()
	s.Submit("wrong")
	s.Advance()
	finish(t, s)

	sum, ok := s.Summary()
	if !ok {
		t.Fatal("summary unavailable after completion")
	}
	if sum.TotalAttempts != 8 {
		t.Errorf("TotalAttempts = %d, want 8", sum.TotalAttempts)
	}
	if sum.TotalCorrect != 6 {
		t.Errorf("TotalCorrect = %d, want 6", sum.TotalCorrect)
	}
	if sum.ScorePercent != 75 {
		t.Errorf("ScorePercent = %d, want 75", sum.ScorePercent)
	}
}

func TestScoreRounding(t *testing.T) {
	// 1 wrong then 3 right on a single card: 3 of 4 attempts → 75.
	// 2 wrong then 3 right: 3 of 5 → 60. The general case rounds to the
	// nearest integer.
	tests := []struct {
		misses int
		want   int
	}{
		{0, 100},
		{1, 75},
		{2, 60},
		{4, 43}, // 3/7 = 42.86
	}

	for _, tc := range tests {
		s := NewSession(makeCards(1), seededCfg(1))
		for i := 0; i < tc.misses; i++ {
			s.Submit("wrong")
			s.Advance()
		}
		finish(t, s)

		sum, _ := s.Summary()
		if sum.ScorePercent != tc.want {
			t.Errorf("%d misses: ScorePercent = %d, want %d", tc.misses, sum.ScorePercent, tc.want)
		}
	}
}

func TestElapsedSeconds(t *testing.T) {
	current := t0
	cfg := SessionConfig{Now: func() time.Time { return current }, Rand: seededCfg(1).Rand}
	s := NewSession(makeCards(1), cfg)

	current = t0.Add(95 * time.Second)
	finish(t, s)

	sum, _ := s.Summary()
	if sum.ElapsedSeconds != 95 {
		t.Errorf("ElapsedSeconds = %d, want 95", sum.ElapsedSeconds)
	}
}

func TestSummaryIdempotent(t *testing.T) {
	s := NewSession(makeCards(2), seededCfg(9))
	finish(t, s)

	first, _ := s.Summary()
	// Redundant advance calls after completion must not change anything.
	s.Advance()
	s.Advance()
	second, _ := s.Summary()

	if first != second {
		t.Errorf("summary changed across calls: %+v vs %+v", first, second)
	}
}

func TestClaimResultOnce(t *testing.T) {
	s := NewSession(makeCards(1), seededCfg(1))

	if s.ClaimResult() {
		t.Error("claim should fail before completion")
	}
	finish(t, s)

	if !s.ClaimResult() {
		t.Fatal("first claim after completion should succeed")
	}
	if s.ClaimResult() {
		t.Error("second claim should fail")
	}

	s.ReleaseClaim()
	if !s.ClaimResult() {
		t.Error("claim should succeed again after release")
	}
}

func TestSnapshotProgress(t *testing.T) {
	s := NewSession(makeCards(2), seededCfg(4))

	v := s.Snapshot()
	if v.Completed || v.Total != 2 || v.Mastered != 0 {
		t.Errorf("initial view = %+v", v)
	}
	if v.Question == "" {
		t.Error("view should carry the current question")
	}

	masterCurrent(t, s)
	v = s.Snapshot()
	if v.Mastered != 1 {
		t.Errorf("Mastered = %d, want 1", v.Mastered)
	}

	finish(t, s)
	v = s.Snapshot()
	if !v.Completed || v.Mastered != 2 {
		t.Errorf("final view = %+v", v)
	}
	if v.Question != "" {
		t.Error("completed view should not carry a question")
	}
}
