// Package sqlite is a single-file backend for quizzes and attempts, used
// when no Postgres URL is configured.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"quiz-session-engine/internal/catalog"
	"quiz-session-engine/internal/domain"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS quizzes (
    id   TEXT PRIMARY KEY,
    data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS quiz_attempts (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id      TEXT NOT NULL,
    quiz_id      TEXT NOT NULL,
    score        INTEGER NOT NULL,
    max_score    INTEGER NOT NULL CHECK (max_score > 0),
    time_taken   INTEGER NOT NULL,
    completed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS quiz_attempts_user_quiz_idx ON quiz_attempts (user_id, quiz_id);
`

// Store implements the quiz loader, attempt store and stats provider on SQLite.
type Store struct {
	db *sql.DB
}

// Open connects to the SQLite database at dsn, applies pragmas and creates
// the schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenFile creates the parent directory of path and opens it.
func OpenFile(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return Open(path)
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

// PutQuiz inserts or replaces a catalog record.
func (s *Store) PutQuiz(ctx context.Context, rec catalog.QuizRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quizzes (id, data) VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET data = excluded.data`,
		rec.ID, string(raw),
	)
	if err != nil {
		return fmt.Errorf("put quiz: %w", err)
	}
	return nil
}

func (s *Store) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM quizzes WHERE id = ?`, quizID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return catalog.Unmarshal([]byte(raw))
}

func (s *Store) SaveAttempt(ctx context.Context, record domain.AttemptRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quiz_attempts (user_id, quiz_id, score, max_score, time_taken, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.UserID, record.QuizID, record.Score, record.MaxScore, record.TimeTaken,
		record.CompletedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *Store) BestPercentage(ctx context.Context, userID, quizID string) (int, bool, error) {
	var best sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT CAST(MAX(ROUND(score * 100.0 / max_score)) AS INTEGER)
		 FROM quiz_attempts WHERE user_id = ? AND quiz_id = ?`,
		userID, quizID,
	).Scan(&best)
	if err != nil {
		return 0, false, fmt.Errorf("best percentage: %w", err)
	}
	if !best.Valid {
		return 0, false, nil
	}
	return int(best.Int64), true, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}
