package domain

import "time"

// DefaultTimeLimitSeconds applies to questions persisted without a time limit.
const DefaultTimeLimitSeconds = 30

// QuestionType is the type tag persisted with every question.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeMapClick       QuestionType = "map_click"
)

// MultipleChoicePayload holds the options of a multiple_choice question.
type MultipleChoicePayload struct {
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// MapClickPayload holds the map metadata of a map_click question.
type MapClickPayload struct {
	TargetRegionID    string   `json:"targetRegionId"`
	TargetCountry     string   `json:"targetCountry"`
	MapType           string   `json:"mapType"`
	AcceptableRegions []string `json:"acceptableRegions,omitempty"`
}

// Question is a decoded question. Exactly one payload is set and it matches Type;
// questions of an unknown type carry no payload.
type Question struct {
	ID               string       `json:"id"`
	Type             QuestionType `json:"type"`
	Text             string       `json:"text"`
	Points           int          `json:"points"`
	TimeLimitSeconds int          `json:"timeLimitSeconds"`
	Explanation      string       `json:"explanation,omitempty"`

	MultipleChoice *MultipleChoicePayload `json:"multipleChoice,omitempty"`
	MapClick       *MapClickPayload       `json:"mapClick,omitempty"`
}

// TimeLimit returns the countdown length for the question.
func (q Question) TimeLimit() int {
	if q.TimeLimitSeconds <= 0 {
		return DefaultTimeLimitSeconds
	}
	return q.TimeLimitSeconds
}

// Quiz is a published quiz with its questions in display order.
type Quiz struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Category   string     `json:"category"`
	Difficulty string     `json:"difficulty"`
	Questions  []Question `json:"questions"`
}

// MaxScore is the sum of all question points.
func (q Quiz) MaxScore() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// QuizPreview is what a user sees before starting; it never includes answers.
type QuizPreview struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Category      string `json:"category"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"questionCount"`
	MaxScore      int    `json:"maxScore"`
}

// Preview summarizes the quiz.
func (q Quiz) Preview() QuizPreview {
	return QuizPreview{
		ID:            q.ID,
		Title:         q.Title,
		Category:      q.Category,
		Difficulty:    q.Difficulty,
		QuestionCount: len(q.Questions),
		MaxScore:      q.MaxScore(),
	}
}

// SessionStatus is the lifecycle state of a quiz attempt.
type SessionStatus string

const (
	StatusPreview    SessionStatus = "preview"
	StatusTaking     SessionStatus = "taking"
	StatusSubmitting SessionStatus = "submitting"
	StatusCompleted  SessionStatus = "completed"
	StatusCancelled  SessionStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// AttemptResult is the finalized outcome of a session.
type AttemptResult struct {
	SessionID              string          `json:"sessionId"`
	QuizID                 string          `json:"quizId"`
	UserID                 string          `json:"userId"`
	Score                  int             `json:"score"`
	MaxScore               int             `json:"maxScore"`
	Percentage             int             `json:"percentage"`
	TimeTakenSeconds       int             `json:"timeTakenSeconds"`
	PerQuestionCorrectness map[string]bool `json:"perQuestionCorrectness"`
	IsNewPersonalBest      bool            `json:"isNewPersonalBest"`
	CompletedAt            time.Time       `json:"completedAt"`
}

// Record converts the result into the payload handed to the attempt store.
func (r AttemptResult) Record() AttemptRecord {
	return AttemptRecord{
		UserID:      r.UserID,
		QuizID:      r.QuizID,
		Score:       r.Score,
		MaxScore:    r.MaxScore,
		TimeTaken:   r.TimeTakenSeconds,
		CompletedAt: r.CompletedAt,
	}
}

// AttemptRecord is the persisted form of an attempt.
type AttemptRecord struct {
	UserID      string    `json:"user_id"`
	QuizID      string    `json:"quiz_id"`
	Score       int       `json:"score"`
	MaxScore    int       `json:"max_score"`
	TimeTaken   int       `json:"time_taken"`
	CompletedAt time.Time `json:"completed_at"`
}
