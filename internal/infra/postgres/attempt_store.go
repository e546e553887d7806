package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-session-engine/internal/domain"
)

// AttemptStore writes finished attempts to quiz_attempts and answers
// best-percentage lookups from the same table.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) SaveAttempt(ctx context.Context, record domain.AttemptRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quiz_attempts (user_id, quiz_id, score, max_score, time_taken, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.UserID, record.QuizID, record.Score, record.MaxScore, record.TimeTaken, record.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) BestPercentage(ctx context.Context, userID, quizID string) (int, bool, error) {
	var best *int
	err := s.pool.QueryRow(ctx,
		`SELECT MAX(ROUND(score * 100.0 / max_score))::int
		 FROM quiz_attempts WHERE user_id=$1 AND quiz_id=$2 AND max_score > 0`,
		userID, quizID,
	).Scan(&best)
	if err != nil {
		return 0, false, fmt.Errorf("best percentage: %w", err)
	}
	if best == nil {
		return 0, false, nil
	}
	return *best, true, nil
}
