// Package rabbitmq announces completed attempts on a message queue so that
// statistics and notification consumers can react to them.
package rabbitmq

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/scoring"
)

// DefaultQueue receives attempt.completed messages.
const DefaultQueue = "quiz.attempts"

const publishTimeout = 5 * time.Second

// Publisher sends a message body to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

// AttemptCompleted is the message published after an attempt is saved.
type AttemptCompleted struct {
	Event      string    `json:"event"`
	UserID     string    `json:"user_id"`
	QuizID     string    `json:"quiz_id"`
	Score      int       `json:"score"`
	MaxScore   int       `json:"max_score"`
	Percentage int       `json:"percentage"`
	TimeTaken  int       `json:"time_taken"`
	Completed  time.Time `json:"completed_at"`
}

// PublishingAttemptStore saves through the wrapped store, then publishes
// the attempt. Publish failures are logged and never fail the save.
type PublishingAttemptStore struct {
	store     app.AttemptStore
	publisher Publisher
	queue     string
}

func NewPublishingAttemptStore(store app.AttemptStore, publisher Publisher, queue string) *PublishingAttemptStore {
	if queue == "" {
		queue = DefaultQueue
	}
	return &PublishingAttemptStore{store: store, publisher: publisher, queue: queue}
}

func (s *PublishingAttemptStore) SaveAttempt(ctx context.Context, record domain.AttemptRecord) error {
	if err := s.store.SaveAttempt(ctx, record); err != nil {
		return err
	}

	body, err := json.Marshal(AttemptCompleted{
		Event:      "attempt.completed",
		UserID:     record.UserID,
		QuizID:     record.QuizID,
		Score:      record.Score,
		MaxScore:   record.MaxScore,
		Percentage: scoring.Percentage(record.Score, record.MaxScore),
		TimeTaken:  record.TimeTaken,
		Completed:  record.CompletedAt,
	})
	if err != nil {
		log.Printf("encode attempt.completed: %v", err)
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, s.queue, body); err != nil {
		log.Printf("publish attempt.completed for %s/%s: %v", record.UserID, record.QuizID, err)
	}
	return nil
}
