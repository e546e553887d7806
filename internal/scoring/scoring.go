// Package scoring computes attempt scores. Everything here is a pure function
// of its inputs.
package scoring

import (
	"math"

	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/question"
)

// Outcome is the result of scoring a set of answers.
type Outcome struct {
	Score    int
	MaxScore int
	// Correct holds one entry per question ID.
	Correct map[string]bool
}

// Score awards a question's points iff its variant validates the recorded
// answer. Missing answers and unsupported questions score zero.
func Score(questions []domain.Question, answers map[string]string) Outcome {
	out := Outcome{Correct: make(map[string]bool, len(questions))}
	for _, q := range questions {
		out.MaxScore += q.Points
		out.Correct[q.ID] = false

		answer, ok := answers[q.ID]
		if !ok {
			continue
		}
		v, err := question.Create(q)
		if err != nil {
			continue
		}
		if v.ValidateAnswer(answer) {
			out.Score += q.Points
			out.Correct[q.ID] = true
		}
	}
	return out
}

// Percentage rounds score/maxScore to the nearest whole percent.
// A non-positive maxScore yields zero.
func Percentage(score, maxScore int) int {
	if maxScore <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(maxScore) * 100))
}

// IsNewPersonalBest reports whether percentage beats the previous best.
// A nil previous best means no earlier attempt.
func IsNewPersonalBest(previousBest *int, percentage int) bool {
	return previousBest == nil || percentage > *previousBest
}
