package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/infra/memory"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	quiz := domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.Question{
			{ID: "q1", Type: domain.QuestionTypeMultipleChoice, Points: 1,
				MultipleChoice: &domain.MultipleChoicePayload{Options: []string{"a"}, CorrectAnswer: "a"}},
		},
	}
	session, err := app.NewSessionController("s1", "u1", quiz, memory.NewAttemptStore())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	store.Put(session)
	if !mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be set")
	}
	if got := mr.HGet("quiz:session:s1", "quiz_id"); got != "quiz-1" {
		t.Fatalf("expected quiz id in liveness hash, got %q", got)
	}
	if _, ok := store.Get("s1"); !ok {
		t.Fatalf("expected local session")
	}

	store.Delete("s1")
	if mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected local session removed")
	}
}
