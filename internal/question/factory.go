package question

import (
	"fmt"

	"quiz-session-engine/internal/domain"
)

// Create builds the variant for q. An unknown type tag, or a known tag whose
// payload is missing, yields an Unsupported variant together with an error
// wrapping domain.ErrUnsupportedQuestionType; the variant is always usable.
func Create(q domain.Question) (Variant, error) {
	switch q.Type {
	case domain.QuestionTypeMultipleChoice:
		if q.MultipleChoice == nil {
			return unsupported(q, "missing multiple choice payload")
		}
		return MultipleChoice{
			ID:            q.ID,
			Options:       q.MultipleChoice.Options,
			CorrectAnswer: q.MultipleChoice.CorrectAnswer,
		}, nil
	case domain.QuestionTypeMapClick:
		if q.MapClick == nil {
			return unsupported(q, "missing map payload")
		}
		return MapClick{
			ID:                q.ID,
			TargetRegionID:    q.MapClick.TargetRegionID,
			TargetCountry:     q.MapClick.TargetCountry,
			MapType:           q.MapClick.MapType,
			AcceptableRegions: q.MapClick.AcceptableRegions,
		}, nil
	default:
		return unsupported(q, "no variant for type")
	}
}

// CreateAll builds variants for every question in order. Errors for
// unsupported questions are collected per question ID.
func CreateAll(questions []domain.Question) ([]Variant, map[string]error) {
	variants := make([]Variant, len(questions))
	var errs map[string]error
	for i, q := range questions {
		v, err := Create(q)
		if err != nil {
			if errs == nil {
				errs = make(map[string]error)
			}
			errs[q.ID] = err
		}
		variants[i] = v
	}
	return variants, errs
}

func unsupported(q domain.Question, reason string) (Variant, error) {
	return Unsupported{ID: q.ID, Type: q.Type},
		fmt.Errorf("%w: question %s (%q): %s", domain.ErrUnsupportedQuestionType, q.ID, q.Type, reason)
}
