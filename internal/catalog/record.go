// Package catalog converts persisted quiz records into domain quizzes.
// Type-specific payloads are stored as JSON text; they are validated and
// decoded here, once, so nothing downstream parses them again.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"quiz-session-engine/internal/domain"
)

// QuizRecord is a quiz as stored in the catalog.
type QuizRecord struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Category   string           `json:"category"`
	Difficulty string           `json:"difficulty"`
	Published  bool             `json:"published"`
	Questions  []QuestionRecord `json:"questions"`
}

// QuestionRecord is a question as stored in the catalog. Options and MapData
// hold JSON-encoded text.
type QuestionRecord struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	Text             string `json:"text"`
	Points           int    `json:"points"`
	TimeLimitSeconds int    `json:"time_limit_seconds,omitempty"`
	Explanation      string `json:"explanation,omitempty"`
	OrderIndex       int    `json:"order_index"`
	Options          string `json:"options,omitempty"`
	CorrectAnswer    string `json:"correct_answer,omitempty"`
	MapData          string `json:"map_data,omitempty"`
}

type mapData struct {
	TargetRegionID    string   `json:"target_region_id"`
	TargetCountry     string   `json:"target_country"`
	MapType           string   `json:"map_type"`
	AcceptableRegions []string `json:"acceptable_regions"`
}

// Decode validates rec and returns the quiz with questions in order-index
// order. Questions of an unknown type are kept without a payload.
func Decode(rec QuizRecord) (domain.Quiz, error) {
	if !rec.Published {
		return domain.Quiz{}, domain.ErrQuizNotPublished
	}
	if len(rec.Questions) == 0 {
		return domain.Quiz{}, domain.ErrNoQuestions
	}

	records := make([]QuestionRecord, len(rec.Questions))
	copy(records, rec.Questions)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].OrderIndex < records[j].OrderIndex
	})

	quiz := domain.Quiz{
		ID:         rec.ID,
		Title:      rec.Title,
		Category:   rec.Category,
		Difficulty: rec.Difficulty,
		Questions:  make([]domain.Question, 0, len(records)),
	}
	seen := make(map[string]bool, len(records))
	for _, qr := range records {
		if qr.ID == "" || seen[qr.ID] {
			return domain.Quiz{}, fmt.Errorf("%w: missing or duplicate id %q", domain.ErrInvalidQuestion, qr.ID)
		}
		seen[qr.ID] = true

		q, err := decodeQuestion(qr)
		if err != nil {
			return domain.Quiz{}, fmt.Errorf("question %s: %w", qr.ID, err)
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if quiz.MaxScore() <= 0 {
		return domain.Quiz{}, domain.ErrZeroTotalPoints
	}
	return quiz, nil
}

// Unmarshal decodes a JSON quiz record and then the record itself.
func Unmarshal(raw []byte) (domain.Quiz, error) {
	var rec QuizRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return Decode(rec)
}

func decodeQuestion(qr QuestionRecord) (domain.Question, error) {
	if qr.Points <= 0 {
		return domain.Question{}, fmt.Errorf("%w: points must be positive, got %d", domain.ErrInvalidQuestion, qr.Points)
	}
	if qr.TimeLimitSeconds < 0 {
		return domain.Question{}, fmt.Errorf("%w: negative time limit", domain.ErrInvalidQuestion)
	}

	q := domain.Question{
		ID:               qr.ID,
		Type:             domain.QuestionType(qr.Type),
		Text:             qr.Text,
		Points:           qr.Points,
		TimeLimitSeconds: qr.TimeLimitSeconds,
		Explanation:      qr.Explanation,
	}

	switch q.Type {
	case domain.QuestionTypeMultipleChoice:
		var options []string
		if err := decodePayload(optionsSchema, qr.Options, &options); err != nil {
			return domain.Question{}, fmt.Errorf("options: %w", err)
		}
		if !contains(options, qr.CorrectAnswer) {
			return domain.Question{}, fmt.Errorf("%w: correct answer %q is not an option", domain.ErrInvalidPayload, qr.CorrectAnswer)
		}
		q.MultipleChoice = &domain.MultipleChoicePayload{
			Options:       options,
			CorrectAnswer: qr.CorrectAnswer,
		}
	case domain.QuestionTypeMapClick:
		var md mapData
		if err := decodePayload(mapSchema, qr.MapData, &md); err != nil {
			return domain.Question{}, fmt.Errorf("map data: %w", err)
		}
		q.MapClick = &domain.MapClickPayload{
			TargetRegionID:    md.TargetRegionID,
			TargetCountry:     md.TargetCountry,
			MapType:           md.MapType,
			AcceptableRegions: md.AcceptableRegions,
		}
	}
	return q, nil
}

func decodePayload(name schemaName, text string, dst any) error {
	if text == "" {
		return fmt.Errorf("%w: empty", domain.ErrInvalidPayload)
	}
	if err := validate(name, text); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), dst); err != nil {
		return errors.Join(domain.ErrInvalidPayload, err)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
