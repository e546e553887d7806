package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quiz-session-engine/internal/config"
	"quiz-session-engine/internal/infra/sqlite"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestTokenCommand(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: s3cret\n")
	t.Setenv("JWT_SECRET", "")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", path, "token", "--user", "u1"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("token: %v", err)
	}
	if strings.Count(strings.TrimSpace(out.String()), ".") != 2 {
		t.Fatalf("expected a JWT, got %q", out.String())
	}
}

func TestSeedIntoSQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "quiz.db")
	path := writeConfig(t, "sqlite:\n  path: "+dbPath+"\n")
	quizzes := filepath.Join(dir, "quizzes.json")
	raw := `[{"id":"geo","title":"Geo","published":true,"questions":[{"id":"q1","type":"multiple_choice","points":2,"options":"[\"a\",\"b\"]","correct_answer":"b"}]}]`
	if err := os.WriteFile(quizzes, []byte(raw), 0o600); err != nil {
		t.Fatalf("write quizzes: %v", err)
	}

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", path, "seed", "--file", quizzes})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	quiz, err := store.LoadQuiz(context.Background(), "geo")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if quiz.MaxScore() != 2 {
		t.Fatalf("expected max score 2, got %d", quiz.MaxScore())
	}
}

func TestOpenBackendInMemory(t *testing.T) {
	b, err := openBackend(context.Background(), config.Config{})
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	defer b.Close()

	quiz, err := b.quizzes.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("sample quiz: %v", err)
	}
	if len(quiz.Questions) != 2 || quiz.Questions[1].MapClick == nil {
		t.Fatalf("unexpected sample quiz %+v", quiz)
	}
	if b.catalog != nil {
		t.Fatalf("in-memory backend has no writable catalog")
	}
}

func TestMigrateSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "quiz.db")
	cfg := config.Config{}
	cfg.SQLite.Path = dbPath
	if err := runMigrationsWithConfig(context.Background(), cfg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected database file: %v", err)
	}

	if err := runMigrationsWithConfig(context.Background(), config.Config{}); err == nil {
		t.Fatalf("expected error without a database")
	}
}
