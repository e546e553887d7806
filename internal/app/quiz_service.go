package app

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"quiz-session-engine/internal/domain"
)

// SessionRepository abstracts where live sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *SessionController)
	Get(sessionID string) (*SessionController, bool)
	Delete(sessionID string)
}

// QuizRepository loads published quizzes (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// StatsProvider reports the best percentage a user reached on a quiz.
// ok is false when the user has no earlier attempt.
type StatsProvider interface {
	BestPercentage(ctx context.Context, userID, quizID string) (best int, ok bool, err error)
}

// QuizService creates sessions and keeps track of the live ones.
type QuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	attempts AttemptStore
	stats    StatsProvider
	opts     []ControllerOption
	newID    func() string
}

// NewQuizService wires the collaborators. stats may be nil, in which case
// every attempt is compared against no previous best.
func NewQuizService(sessions SessionRepository, quizzes QuizRepository, attempts AttemptStore, stats StatsProvider, opts ...ControllerOption) *QuizService {
	return &QuizService{
		sessions: sessions,
		quizzes:  quizzes,
		attempts: attempts,
		stats:    stats,
		opts:     opts,
		newID:    func() string { return uuid.New().String() },
	}
}

// Preview returns the quiz summary shown before starting.
func (s *QuizService) Preview(ctx context.Context, quizID string) (domain.QuizPreview, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizPreview{}, &domain.LoadError{QuizID: quizID, Err: err}
	}
	return quiz.Preview(), nil
}

// Begin loads the quiz and registers a new session in the preview state.
// The previous best is read once here and used for the whole session.
func (s *QuizService) Begin(ctx context.Context, quizID, userID string) (*SessionController, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, &domain.LoadError{QuizID: quizID, Err: err}
	}

	var previousBest *int
	if s.stats != nil {
		best, ok, err := s.stats.BestPercentage(ctx, userID, quizID)
		if err != nil {
			return nil, fmt.Errorf("previous best: %w", err)
		}
		if ok {
			previousBest = &best
		}
	}

	opts := append([]ControllerOption{WithPreviousBest(previousBest)}, s.opts...)
	session, err := NewSessionController(s.newID(), userID, quiz, s.attempts, opts...)
	if err != nil {
		return nil, &domain.LoadError{QuizID: quizID, Err: err}
	}
	s.sessions.Put(session)
	return session, nil
}

// Session looks up a live session.
func (s *QuizService) Session(sessionID string) (*SessionController, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// End closes a session and forgets it.
func (s *QuizService) End(sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(sessionID)
	log.Printf("session %s ended with status %s", sessionID, session.Status())
}
