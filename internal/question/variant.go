// Package question turns decoded questions into variants that know how to
// check an answer. The set of variants is closed: every implementation lives
// in this package.
package question

import "quiz-session-engine/internal/domain"

// Variant is the behavior attached to a question's type tag.
type Variant interface {
	// QuestionID returns the ID of the question the variant was built from.
	QuestionID() string
	// ValidateAnswer reports whether answer earns the question's points.
	ValidateAnswer(answer string) bool
	// CorrectAnswerDescriptor describes the expected answer for feedback screens.
	CorrectAnswerDescriptor() Descriptor

	variant()
}

// Descriptor describes a question's correct answer.
type Descriptor struct {
	Type     domain.QuestionType `json:"type"`
	Answer   string              `json:"answer"`
	Label    string              `json:"label,omitempty"`
	Accepted []string            `json:"accepted,omitempty"`
}

// MultipleChoice accepts exactly the stored correct option.
type MultipleChoice struct {
	ID            string
	Options       []string
	CorrectAnswer string
}

func (m MultipleChoice) QuestionID() string { return m.ID }

// ValidateAnswer compares strings exactly; no trimming or case folding.
func (m MultipleChoice) ValidateAnswer(answer string) bool {
	return answer == m.CorrectAnswer
}

func (m MultipleChoice) CorrectAnswerDescriptor() Descriptor {
	return Descriptor{
		Type:   domain.QuestionTypeMultipleChoice,
		Answer: m.CorrectAnswer,
		Label:  m.CorrectAnswer,
	}
}

func (MultipleChoice) variant() {}

// MapClick accepts the target region or any of the acceptable regions.
type MapClick struct {
	ID                string
	TargetRegionID    string
	TargetCountry     string
	MapType           string
	AcceptableRegions []string
}

func (m MapClick) QuestionID() string { return m.ID }

func (m MapClick) ValidateAnswer(answer string) bool {
	if answer == m.TargetRegionID {
		return true
	}
	for _, region := range m.AcceptableRegions {
		if answer == region {
			return true
		}
	}
	return false
}

func (m MapClick) CorrectAnswerDescriptor() Descriptor {
	accepted := []string{m.TargetRegionID}
	for _, region := range m.AcceptableRegions {
		if region != m.TargetRegionID {
			accepted = append(accepted, region)
		}
	}
	return Descriptor{
		Type:     domain.QuestionTypeMapClick,
		Answer:   m.TargetRegionID,
		Label:    m.TargetCountry,
		Accepted: accepted,
	}
}

func (MapClick) variant() {}

// Unsupported stands in for a question whose type tag has no variant.
// It never validates an answer and is worth nothing.
type Unsupported struct {
	ID   string
	Type domain.QuestionType
}

func (u Unsupported) QuestionID() string { return u.ID }

func (Unsupported) ValidateAnswer(string) bool { return false }

func (u Unsupported) CorrectAnswerDescriptor() Descriptor {
	return Descriptor{Type: u.Type}
}

func (Unsupported) variant() {}

// IsSupported reports whether v can take answers.
func IsSupported(v Variant) bool {
	_, unsupported := v.(Unsupported)
	return !unsupported
}
