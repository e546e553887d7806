package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/catalog"
	"quiz-session-engine/internal/countdown/countdowntest"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/infra/memory"
)

func catalogRecords() map[string]catalog.QuizRecord {
	return map[string]catalog.QuizRecord{
		"quiz-1": {
			ID:        "quiz-1",
			Title:     "Capitals",
			Category:  "geography",
			Published: true,
			Questions: []catalog.QuestionRecord{
				{ID: "q1", Type: "multiple_choice", Text: "Capital of France?", Points: 10, OrderIndex: 1, Options: `["Paris","Lyon"]`, CorrectAnswer: "Paris"},
				{ID: "q2", Type: "map_click", Text: "Click on France", Points: 10, OrderIndex: 2, MapData: `{"target_region_id":"FR","acceptable_regions":["FR","BE"]}`},
			},
		},
		"draft": {
			ID:        "draft",
			Published: false,
			Questions: []catalog.QuestionRecord{
				{ID: "q1", Type: "multiple_choice", Points: 1, Options: `["a"]`, CorrectAnswer: "a"},
			},
		},
	}
}

type testService struct {
	service  *app.QuizService
	sessions *memory.SessionStore
	attempts *memory.AttemptStore
	sched    *countdowntest.Scheduler
}

func newTestService() testService {
	sched := countdowntest.New()
	sessions := memory.NewSessionStore()
	attempts := memory.NewAttemptStore()
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(catalogRecords()), time.Minute)
	service := app.NewQuizService(sessions, quizzes, attempts, attempts,
		app.WithScheduler(sched),
		app.WithGraceDelay(time.Second),
	)
	return testService{service: service, sessions: sessions, attempts: attempts, sched: sched}
}

func playAll(t *testing.T, session *app.SessionController, answers ...string) domain.AttemptResult {
	t.Helper()
	mustDo(t, "start", session.Start())
	ids := []string{"q1", "q2"}
	for i, answer := range answers {
		if i > 0 {
			mustDo(t, "next", session.Next())
		}
		mustDo(t, "answer", session.Answer(ids[i], answer))
	}
	result, err := session.Submit(context.Background())
	mustDo(t, "submit", err)
	return result
}

func TestBeginAndComplete(t *testing.T) {
	ctx := context.Background()
	ts := newTestService()

	session, err := ts.service.Begin(ctx, "quiz-1", "u1")
	mustDo(t, "begin", err)
	if session.Status() != domain.StatusPreview || session.QuizID() != "quiz-1" || session.UserID() != "u1" {
		t.Fatalf("unexpected session %s %s %s", session.Status(), session.QuizID(), session.UserID())
	}
	if got, err := ts.service.Session(session.ID()); err != nil || got != session {
		t.Fatalf("expected session lookup to succeed, got %v", err)
	}

	result := playAll(t, session, "Paris", "BE")
	if result.Score != 20 || result.Percentage != 100 || !result.IsNewPersonalBest {
		t.Fatalf("unexpected result %+v", result)
	}

	ts.service.End(session.ID())
	if _, err := ts.service.Session(session.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session to be gone, got %v", err)
	}
	if session.Status() != domain.StatusCompleted {
		t.Fatalf("ending a completed session must keep its status, got %s", session.Status())
	}
}

func TestPreviousBestIsReadAtBegin(t *testing.T) {
	ctx := context.Background()
	ts := newTestService()

	first, err := ts.service.Begin(ctx, "quiz-1", "u1")
	mustDo(t, "begin", err)
	second, err := ts.service.Begin(ctx, "quiz-1", "u1")
	mustDo(t, "begin", err)

	if r := playAll(t, first, "Paris"); r.Percentage != 50 || !r.IsNewPersonalBest {
		t.Fatalf("expected first attempt to set a best, got %+v", r)
	}
	// second began before the first finished, so it still compares against no best
	if r := playAll(t, second, "Lyon"); r.Percentage != 0 || !r.IsNewPersonalBest {
		t.Fatalf("expected best fetched at begin to be used, got %+v", r)
	}

	third, err := ts.service.Begin(ctx, "quiz-1", "u1")
	mustDo(t, "begin", err)
	if r := playAll(t, third, "Paris"); r.IsNewPersonalBest {
		t.Fatalf("expected 50%% not to beat 50%%, got %+v", r)
	}

	best, ok, err := ts.attempts.BestPercentage(ctx, "u1", "quiz-1")
	if err != nil || !ok || best != 50 {
		t.Fatalf("expected best 50, got %d %v %v", best, ok, err)
	}
}

func TestBeginReportsLoadErrors(t *testing.T) {
	ctx := context.Background()
	ts := newTestService()

	tests := []struct {
		quizID string
		want   error
	}{
		{"missing", domain.ErrQuizNotFound},
		{"draft", domain.ErrQuizNotPublished},
	}
	for _, tt := range tests {
		_, err := ts.service.Begin(ctx, tt.quizID, "u1")
		var lerr *domain.LoadError
		if !errors.As(err, &lerr) || lerr.QuizID != tt.quizID || !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected load error wrapping %v, got %v", tt.quizID, tt.want, err)
		}
	}
	if ts.sessions.Len() != 0 {
		t.Fatalf("failed loads must not register sessions, got %d", ts.sessions.Len())
	}
}

func TestPreview(t *testing.T) {
	ts := newTestService()
	preview, err := ts.service.Preview(context.Background(), "quiz-1")
	mustDo(t, "preview", err)
	if preview.Title != "Capitals" || preview.QuestionCount != 2 || preview.MaxScore != 20 {
		t.Fatalf("unexpected preview %+v", preview)
	}
}

func TestEndCancelsRunningSession(t *testing.T) {
	ts := newTestService()
	session, err := ts.service.Begin(context.Background(), "quiz-1", "u1")
	mustDo(t, "begin", err)
	mustDo(t, "start", session.Start())

	ts.service.End(session.ID())
	if session.Status() != domain.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", session.Status())
	}
	if ts.sched.Pending() != 0 {
		t.Fatalf("expected no timers after end, got %d", ts.sched.Pending())
	}
	if len(ts.attempts.Attempts()) != 0 {
		t.Fatalf("cancelled session must not persist an attempt")
	}
}
