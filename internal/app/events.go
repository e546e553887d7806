package app

import (
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/question"
)

// EventType names a session notification.
type EventType string

const (
	EventState        EventType = "state"
	EventTick         EventType = "tick"
	EventTimeUp       EventType = "time_up"
	EventCompleted    EventType = "completed"
	EventSubmitFailed EventType = "submit_failed"
	EventCancelled    EventType = "cancelled"
)

// Event is pushed to subscribers after every change.
type Event struct {
	Type     EventType `json:"type"`
	Snapshot Snapshot  `json:"snapshot"`
}

// Snapshot is a read-only view of a session for rendering.
type Snapshot struct {
	SessionID      string                `json:"sessionId"`
	QuizID         string                `json:"quizId"`
	Status         domain.SessionStatus  `json:"status"`
	CurrentIndex   int                   `json:"currentIndex"`
	TotalQuestions int                   `json:"totalQuestions"`
	AnsweredCount  int                   `json:"answeredCount"`
	Current        *QuestionView         `json:"current,omitempty"`
	Remaining      int                   `json:"remaining"`
	TimerRunning   bool                  `json:"timerRunning"`
	TimeUp         bool                  `json:"timeUp"`
	CancelPending  bool                  `json:"cancelPending"`
	Result         *domain.AttemptResult `json:"result,omitempty"`
	Error          string                `json:"error,omitempty"`
}

// QuestionView is the current question as the player sees it. Correctness and
// the expected answer are only filled once the question is closed.
type QuestionView struct {
	ID               string               `json:"id"`
	Type             domain.QuestionType  `json:"type"`
	Text             string               `json:"text"`
	Points           int                  `json:"points"`
	TimeLimitSeconds int                  `json:"timeLimitSeconds"`
	Supported        bool                 `json:"supported"`
	Options          []string             `json:"options,omitempty"`
	MapType          string               `json:"mapType,omitempty"`
	TargetCountry    string               `json:"targetCountry,omitempty"`
	Answered         bool                 `json:"answered"`
	Answer           string               `json:"answer,omitempty"`
	TimedOut         bool                 `json:"timedOut"`
	Correct          *bool                `json:"correct,omitempty"`
	Reveal           *question.Descriptor `json:"reveal,omitempty"`
	Explanation      string               `json:"explanation,omitempty"`
}

// Snapshot returns the current view of the session.
func (c *SessionController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel of session events, starting with the current
// state. The caller must invoke the returned cancel function to avoid leaks.
func (c *SessionController) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subscribers[ch] = struct{}{}
	initial := Event{Type: EventState, Snapshot: c.snapshotLocked()}
	c.mu.Unlock()

	ch <- initial

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *SessionController) broadcastLocked(typ EventType) {
	if len(c.subscribers) == 0 {
		return
	}
	ev := Event{Type: typ, Snapshot: c.snapshotLocked()}
	for ch := range c.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow subscriber: drop its oldest event so the newest state wins.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

func (c *SessionController) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:      c.id,
		QuizID:         c.quiz.ID,
		Status:         c.status,
		CurrentIndex:   c.current,
		TotalQuestions: len(c.questions),
		AnsweredCount:  len(c.answers),
		Remaining:      c.remaining,
		TimerRunning:   c.timer != nil && c.timer.Running(),
		TimeUp:         c.pending != autoNone,
		CancelPending:  c.cancelPending,
	}
	if c.result != nil {
		result := *c.result
		snap.Result = &result
	}
	if c.submitErr != nil {
		snap.Error = c.submitErr.Error()
	}
	if c.status == domain.StatusTaking {
		snap.Current = c.questionViewLocked(c.current)
	}
	return snap
}

func (c *SessionController) questionViewLocked(pos int) *QuestionView {
	q := c.questions[pos]
	v := c.variants[pos]
	view := &QuestionView{
		ID:               q.ID,
		Type:             q.Type,
		Text:             q.Text,
		Points:           q.Points,
		TimeLimitSeconds: q.TimeLimit(),
		Supported:        question.IsSupported(v),
	}
	switch variant := v.(type) {
	case question.MultipleChoice:
		view.Options = variant.Options
	case question.MapClick:
		view.MapType = variant.MapType
		view.TargetCountry = variant.TargetCountry
	case question.Unsupported:
	}

	answer, answered := c.answers[q.ID]
	view.Answered = answered
	view.Answer = answer
	view.TimedOut = c.timedOut[q.ID]
	if answered || view.TimedOut {
		correct := answered && v.ValidateAnswer(answer)
		reveal := v.CorrectAnswerDescriptor()
		view.Correct = &correct
		view.Reveal = &reveal
		view.Explanation = q.Explanation
	}
	return view
}
