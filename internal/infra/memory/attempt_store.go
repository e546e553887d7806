package memory

import (
	"context"
	"sync"

	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/scoring"
)

// AttemptStore keeps attempts in memory. It also answers best-percentage
// queries over the attempts it holds.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts []domain.AttemptRecord
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{}
}

func (s *AttemptStore) SaveAttempt(_ context.Context, record domain.AttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, record)
	return nil
}

func (s *AttemptStore) BestPercentage(_ context.Context, userID, quizID string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	best, found := 0, false
	for _, a := range s.attempts {
		if a.UserID != userID || a.QuizID != quizID {
			continue
		}
		pct := scoring.Percentage(a.Score, a.MaxScore)
		if !found || pct > best {
			best, found = pct, true
		}
	}
	return best, found, nil
}

// Attempts returns a copy of the stored attempts in save order.
func (s *AttemptStore) Attempts() []domain.AttemptRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AttemptRecord, len(s.attempts))
	copy(out, s.attempts)
	return out
}
