package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"quiz-session-engine/internal/countdown"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/question"
	"quiz-session-engine/internal/scoring"
)

// DefaultGraceDelay is the pause between a timeout and the automatic advance.
const DefaultGraceDelay = time.Second

// AttemptStore persists finished attempts.
type AttemptStore interface {
	SaveAttempt(ctx context.Context, record domain.AttemptRecord) error
}

type autoAction int

const (
	autoNone autoAction = iota
	autoNext
	autoSubmit
)

// ControllerOption configures a SessionController.
type ControllerOption func(*SessionController)

// WithScheduler replaces the wall clock scheduler used for countdowns and the grace delay.
func WithScheduler(s countdown.Scheduler) ControllerOption {
	return func(c *SessionController) { c.sched = s }
}

// WithGraceDelay sets the delay between a timeout and the automatic advance.
func WithGraceDelay(d time.Duration) ControllerOption {
	return func(c *SessionController) { c.grace = d }
}

// WithClock is used for deterministic timestamps in tests.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *SessionController) { c.now = now }
}

// WithPreviousBest sets the best percentage the user reached before this session.
func WithPreviousBest(best *int) ControllerOption {
	return func(c *SessionController) { c.previousBest = best }
}

// SessionController drives one quiz attempt from preview to completion.
// All methods are safe for concurrent use; countdown callbacks are serialized
// with user events through the same lock.
type SessionController struct {
	id           string
	userID       string
	quiz         domain.Quiz
	questions    []domain.Question
	variants     []question.Variant
	positions    map[string]int
	store        AttemptStore
	sched        countdown.Scheduler
	grace        time.Duration
	now          func() time.Time
	previousBest *int

	mu            sync.Mutex
	status        domain.SessionStatus
	current       int
	answers       map[string]string
	timedOut      map[string]bool
	startedAt     time.Time
	timer         *countdown.Countdown
	timerGen      uint64
	remaining     int
	cancelPending bool
	pending       autoAction
	graceTimer    countdown.Timer
	graceGen      uint64
	result        *domain.AttemptResult
	inFlight      bool
	submitErr     error
	closed        bool
	subscribers   map[chan Event]struct{}
}

// NewSessionController creates a session in the preview state. Questions
// with an unsupported type do not prevent the session from being created.
func NewSessionController(id, userID string, quiz domain.Quiz, store AttemptStore, opts ...ControllerOption) (*SessionController, error) {
	if len(quiz.Questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	if quiz.MaxScore() <= 0 {
		return nil, domain.ErrZeroTotalPoints
	}

	questions := make([]domain.Question, len(quiz.Questions))
	copy(questions, quiz.Questions)
	positions := make(map[string]int, len(questions))
	for i, q := range questions {
		positions[q.ID] = i
	}

	variants, errs := question.CreateAll(questions)
	for _, err := range errs {
		log.Printf("session %s: %v", id, err)
	}

	c := &SessionController{
		id:          id,
		userID:      userID,
		quiz:        quiz,
		questions:   questions,
		variants:    variants,
		positions:   positions,
		store:       store,
		sched:       countdown.WallClock{},
		grace:       DefaultGraceDelay,
		now:         time.Now,
		status:      domain.StatusPreview,
		answers:     make(map[string]string),
		timedOut:    make(map[string]bool),
		subscribers: make(map[chan Event]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ID returns the session ID.
func (c *SessionController) ID() string { return c.id }

// UserID returns the acting user.
func (c *SessionController) UserID() string { return c.userID }

// QuizID returns the quiz being attempted.
func (c *SessionController) QuizID() string { return c.quiz.ID }

// Start moves the session from preview to taking and starts the first countdown.
func (c *SessionController) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != domain.StatusPreview || c.closed {
		return c.transitionErr("start")
	}
	c.status = domain.StatusTaking
	c.current = 0
	c.answers = make(map[string]string)
	c.timedOut = make(map[string]bool)
	c.startedAt = c.now()
	c.startCountdownLocked()
	log.Printf("session %s started: quiz=%s user=%s questions=%d", c.id, c.quiz.ID, c.userID, len(c.questions))
	c.broadcastLocked(EventState)
	return nil
}

// Answer records value for the current question and stops its countdown.
// It does not advance.
func (c *SessionController) Answer(questionID, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireTakingLocked("answer"); err != nil {
		return err
	}
	pos, ok := c.positions[questionID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownQuestion, questionID)
	}
	if pos != c.current {
		return fmt.Errorf("%w: %s", domain.ErrNotCurrentQuestion, questionID)
	}
	if _, done := c.answers[questionID]; done {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyAnswered, questionID)
	}
	if c.timedOut[questionID] {
		return fmt.Errorf("%w: %s", domain.ErrQuestionTimedOut, questionID)
	}
	if !question.IsSupported(c.variants[pos]) {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedQuestionType, questionID)
	}

	c.answers[questionID] = value
	c.stopCountdownLocked()
	c.broadcastLocked(EventState)
	return nil
}

// Next moves to the following question, starting its countdown when it is
// still open.
func (c *SessionController) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireTakingLocked("next"); err != nil {
		return err
	}
	if c.pending != autoNone {
		return c.transitionErr("next")
	}
	if c.current >= len(c.questions)-1 {
		return domain.ErrNoNextQuestion
	}
	c.stopCountdownLocked()
	c.current++
	c.startCountdownLocked()
	c.broadcastLocked(EventState)
	return nil
}

// Prev moves to the preceding question. Visited questions are never re-timed.
func (c *SessionController) Prev() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireTakingLocked("prev"); err != nil {
		return err
	}
	if c.pending != autoNone {
		return c.transitionErr("prev")
	}
	if c.current == 0 {
		return domain.ErrNoPreviousQuestion
	}
	c.stopCountdownLocked()
	c.current--
	c.broadcastLocked(EventState)
	return nil
}

// RequestCancel pauses timing and waits for ConfirmCancel or DeclineCancel.
func (c *SessionController) RequestCancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireTakingLocked("cancel"); err != nil {
		return err
	}
	c.cancelPending = true
	c.timer.Pause()
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
		c.graceGen++
	}
	c.broadcastLocked(EventState)
	return nil
}

// DeclineCancel resumes the paused countdown with its remaining time.
func (c *SessionController) DeclineCancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != domain.StatusTaking || !c.cancelPending {
		return c.transitionErr("decline cancel")
	}
	c.cancelPending = false
	c.timer.Resume()
	if c.pending != autoNone {
		c.scheduleGraceLocked()
	}
	c.broadcastLocked(EventState)
	return nil
}

// ConfirmCancel stops all timing and discards the attempt.
func (c *SessionController) ConfirmCancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != domain.StatusTaking || !c.cancelPending {
		return c.transitionErr("confirm cancel")
	}
	c.stopCountdownLocked()
	c.stopGraceLocked()
	c.cancelPending = false
	c.status = domain.StatusCancelled
	log.Printf("session %s cancelled at question %d/%d", c.id, c.current+1, len(c.questions))
	c.broadcastLocked(EventCancelled)
	return nil
}

// Submit scores the attempt and hands it to the attempt store. On a store
// failure the session stays in submitting and a *domain.PersistenceError is
// returned; calling Submit again resends the same result. The store call is
// not cancelled when ctx is.
func (c *SessionController) Submit(ctx context.Context) (domain.AttemptResult, error) {
	c.mu.Lock()
	switch c.status {
	case domain.StatusTaking:
		if c.cancelPending {
			c.mu.Unlock()
			return domain.AttemptResult{}, c.transitionErr("submit")
		}
		c.stopCountdownLocked()
		c.stopGraceLocked()
		c.status = domain.StatusSubmitting
		result := c.evaluateLocked()
		c.result = &result
	case domain.StatusSubmitting:
		if c.inFlight {
			c.mu.Unlock()
			return domain.AttemptResult{}, domain.ErrSubmitInProgress
		}
	default:
		err := c.transitionErr("submit")
		c.mu.Unlock()
		return domain.AttemptResult{}, err
	}
	c.inFlight = true
	c.submitErr = nil
	result := *c.result
	c.broadcastLocked(EventState)
	c.mu.Unlock()

	err := c.store.SaveAttempt(context.WithoutCancel(ctx), result.Record())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	if err != nil {
		perr := &domain.PersistenceError{Err: err}
		c.submitErr = perr
		log.Printf("session %s: %v", c.id, perr)
		c.broadcastLocked(EventSubmitFailed)
		return domain.AttemptResult{}, perr
	}
	c.status = domain.StatusCompleted
	log.Printf("session %s completed: score=%d/%d (%d%%)", c.id, result.Score, result.MaxScore, result.Percentage)
	c.broadcastLocked(EventCompleted)
	return result, nil
}

// Close releases the session's timers and subscribers. A session that has
// not reached submitting is discarded as cancelled; an in-flight submit is
// left to finish.
func (c *SessionController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.stopCountdownLocked()
	c.stopGraceLocked()
	c.cancelPending = false
	if c.status == domain.StatusPreview || c.status == domain.StatusTaking {
		c.status = domain.StatusCancelled
	}
	for ch := range c.subscribers {
		delete(c.subscribers, ch)
		close(ch)
	}
}

// Status returns the current lifecycle state.
func (c *SessionController) Status() domain.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Result returns the attempt result once the session has been submitted.
func (c *SessionController) Result() (domain.AttemptResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return domain.AttemptResult{}, false
	}
	return *c.result, true
}

func (c *SessionController) requireTakingLocked(op string) error {
	if c.status != domain.StatusTaking || c.cancelPending {
		return c.transitionErr(op)
	}
	return nil
}

func (c *SessionController) transitionErr(op string) error {
	if c.cancelPending {
		return fmt.Errorf("%w: %s while cancel is pending", domain.ErrInvalidTransition, op)
	}
	if c.pending != autoNone {
		return fmt.Errorf("%w: %s while time is up", domain.ErrInvalidTransition, op)
	}
	return fmt.Errorf("%w: %s while %s", domain.ErrInvalidTransition, op, c.status)
}

// startCountdownLocked stops any running countdown and starts one for the
// current question unless it is already answered or timed out.
func (c *SessionController) startCountdownLocked() {
	c.stopCountdownLocked()

	q := c.questions[c.current]
	if _, answered := c.answers[q.ID]; answered || c.timedOut[q.ID] {
		c.remaining = 0
		return
	}
	c.remaining = q.TimeLimit()
	gen := c.timerGen
	c.timer = countdown.Start(c.sched, c.remaining,
		func(remaining int) { c.handleTick(gen, remaining) },
		func() { c.handleExpire(gen) },
	)
}

func (c *SessionController) stopCountdownLocked() {
	c.timer.Stop()
	c.timer = nil
	c.timerGen++
}

func (c *SessionController) handleTick(gen uint64, remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.timerGen || c.status != domain.StatusTaking {
		return
	}
	c.remaining = remaining
	c.broadcastLocked(EventTick)
}

func (c *SessionController) handleExpire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.timerGen || c.status != domain.StatusTaking {
		return
	}
	q := c.questions[c.current]
	if _, answered := c.answers[q.ID]; answered {
		return
	}
	c.timer = nil
	c.timerGen++
	c.remaining = 0
	c.timedOut[q.ID] = true
	if c.current < len(c.questions)-1 {
		c.pending = autoNext
	} else {
		c.pending = autoSubmit
	}
	c.scheduleGraceLocked()
	c.broadcastLocked(EventTimeUp)
}

func (c *SessionController) scheduleGraceLocked() {
	c.graceGen++
	gen := c.graceGen
	c.graceTimer = c.sched.AfterFunc(c.grace, func() { c.handleGrace(gen) })
}

func (c *SessionController) stopGraceLocked() {
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}
	c.graceGen++
	c.pending = autoNone
}

func (c *SessionController) handleGrace(gen uint64) {
	c.mu.Lock()
	if gen != c.graceGen || c.status != domain.StatusTaking || c.cancelPending {
		c.mu.Unlock()
		return
	}
	action := c.pending
	c.pending = autoNone
	c.graceTimer = nil

	switch action {
	case autoNext:
		c.current++
		c.startCountdownLocked()
		c.broadcastLocked(EventState)
		c.mu.Unlock()
	case autoSubmit:
		c.mu.Unlock()
		if _, err := c.Submit(context.Background()); err != nil {
			log.Printf("session %s: auto-submit: %v", c.id, err)
		}
	default:
		c.mu.Unlock()
	}
}

func (c *SessionController) evaluateLocked() domain.AttemptResult {
	out := scoring.Score(c.questions, c.answers)
	percentage := scoring.Percentage(out.Score, out.MaxScore)
	now := c.now()
	elapsed := now.Sub(c.startedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return domain.AttemptResult{
		SessionID:              c.id,
		QuizID:                 c.quiz.ID,
		UserID:                 c.userID,
		Score:                  out.Score,
		MaxScore:               out.MaxScore,
		Percentage:             percentage,
		TimeTakenSeconds:       int(elapsed / time.Second),
		PerQuestionCorrectness: out.Correct,
		IsNewPersonalBest:      scoring.IsNewPersonalBest(c.previousBest, percentage),
		CompletedAt:            now,
	}
}
