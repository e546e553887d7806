package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a quiz session has not been initialized.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizNotPublished indicates the quiz exists but cannot be attempted.
	ErrQuizNotPublished = errors.New("quiz not published")
	// ErrNoQuestions indicates a quiz without questions.
	ErrNoQuestions = errors.New("quiz has no questions")
	// ErrZeroTotalPoints indicates a quiz whose questions are worth nothing in total.
	ErrZeroTotalPoints = errors.New("quiz total points must be positive")
	// ErrInvalidPayload indicates a type-specific payload that could not be decoded.
	ErrInvalidPayload = errors.New("invalid question payload")
	// ErrInvalidQuestion indicates a question with bad points or time limit.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrUnsupportedQuestionType is reported for a type tag without a variant.
	ErrUnsupportedQuestionType = errors.New("unsupported question type")

	// ErrInvalidTransition is returned when an event is not valid in the current state.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrUnknownQuestion indicates a question ID outside the quiz.
	ErrUnknownQuestion = errors.New("question not in quiz")
	// ErrNotCurrentQuestion indicates an answer for a question other than the current one.
	ErrNotCurrentQuestion = errors.New("question is not the current question")
	// ErrAlreadyAnswered indicates a second answer for the same question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrQuestionTimedOut indicates an answer for a question whose time ran out.
	ErrQuestionTimedOut = errors.New("question time expired")
	// ErrNoNextQuestion is returned by next on the last question.
	ErrNoNextQuestion = errors.New("no next question")
	// ErrNoPreviousQuestion is returned by prev on the first question.
	ErrNoPreviousQuestion = errors.New("no previous question")
	// ErrSubmitInProgress is returned while a submit is waiting on the attempt store.
	ErrSubmitInProgress = errors.New("submit already in progress")
)

// LoadError reports a quiz that could not be loaded. The session never starts.
type LoadError struct {
	QuizID string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load quiz %s: %v", e.QuizID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// PersistenceError reports an attempt store failure. Submitting again retries
// with the same result.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "save attempt: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Retryable is always true; the caller may submit again.
func (e *PersistenceError) Retryable() bool { return true }
