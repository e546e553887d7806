package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/catalog"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/infra/memory"
)

func newTestRouter() http.Handler {
	records := sampleRecords()
	records["broken"] = catalog.QuizRecord{
		ID:        "broken",
		Published: true,
		Questions: []catalog.QuestionRecord{{ID: "q1", Type: "multiple_choice", Points: 1, Options: "nope"}},
	}
	attempts := memory.NewAttemptStore()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(records), time.Minute)
	service := app.NewQuizService(memory.NewSessionStore(), quizRepo, attempts, attempts)
	return NewRouter(service, NewAuthenticator(""))
}

func TestPreviewEndpoint(t *testing.T) {
	router := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quizzes/quiz-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var preview domain.QuizPreview
	if err := json.Unmarshal(rec.Body.Bytes(), &preview); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if preview.Title != "Arithmetic" || preview.QuestionCount != 1 || preview.MaxScore != 1 {
		t.Fatalf("unexpected preview %+v", preview)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/quizzes/missing", http.StatusNotFound},
		{"/quizzes/broken", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.path, tt.want, rec.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}
