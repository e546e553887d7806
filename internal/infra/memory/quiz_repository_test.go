package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-session-engine/internal/catalog"
	"quiz-session-engine/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader(sampleRecords())}
	repo := NewQuizRepository(loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.Questions[0].MultipleChoice == nil || quiz.Questions[0].MultipleChoice.CorrectAnswer != "4" {
		t.Fatalf("expected decoded payload, got %+v", quiz.Questions[0])
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader once, got %d", loader.count())
	}

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.count())
	}
}

func TestQuizRepositoryExpires(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader(sampleRecords())}
	repo := NewQuizRepository(loader, time.Minute)
	now := time.Date(2024, 11, 22, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz after ttl: %v", err)
	}
	if loader.count() != 2 {
		t.Fatalf("expected reload after ttl, got %d calls", loader.count())
	}
}

func TestQuizRepositoryDoesNotCacheErrors(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader(sampleRecords())}
	repo := NewQuizRepository(loader, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := repo.GetQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if loader.count() != 2 {
		t.Fatalf("expected every miss to hit the loader, got %d", loader.count())
	}
}

func TestStaticQuizLoaderDecodes(t *testing.T) {
	records := sampleRecords()
	rec := records["quiz-1"]
	rec.Questions[0].Options = `not json`
	records["broken"] = rec

	loader := NewStaticQuizLoader(records)
	if _, err := loader.LoadQuiz(context.Background(), "broken"); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected invalid payload, got %v", err)
	}
}

type countingLoader struct {
	QuizLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleRecords() map[string]catalog.QuizRecord {
	return map[string]catalog.QuizRecord{
		"quiz-1": {
			ID:        "quiz-1",
			Published: true,
			Questions: []catalog.QuestionRecord{
				{
					ID:            "q1",
					Type:          "multiple_choice",
					Text:          "What is 2 + 2?",
					Options:       `["3","4"]`,
					CorrectAnswer: "4",
					Points:        1,
				},
			},
		},
	}
}
