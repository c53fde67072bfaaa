// Package catalog normalizes raw quiz documents into the canonical shape.
//
// Quiz documents accumulated field-name drift upstream (authoring tools wrote
// the same concept under several names over time), so the adapter resolves
// each concept with a fixed priority order and applies defaults once, at load
// time. Everything past this package sees only domain.Quiz.
package catalog

import (
	"encoding/json"
	"fmt"

	"quiz-attempt-service/internal/domain"
)

// DefaultTimeLimitMinutes applies when a document carries no time limit.
const DefaultTimeLimitMinutes = 30

type rawQuiz struct {
	QuizTitle      string        `json:"quizTitle"`
	QuizTitleUpper string        `json:"QuizTitle"`
	Title          string        `json:"title"`
	TimeLimit      int           `json:"timeLimit"`
	TimeLimitMins  int           `json:"timeLimitMinutes"`
	TotalPoints    int           `json:"totalPoints"`
	Questions      []rawQuestion `json:"questions"`
}

type rawQuestion struct {
	Text         string   `json:"text"`
	Question     string   `json:"question"`
	QuestionText string   `json:"questionText"`
	Title        string   `json:"title"`
	Options      []string `json:"options"`
	Choices      []string `json:"choices"`
	Answers      []string `json:"answers"`
	// Pointers distinguish "absent" from a legitimate index 0.
	CorrectAnswer      *int `json:"correctAnswer"`
	CorrectOptionIndex *int `json:"correctOptionIndex"`
	Correct            *int `json:"correct"`
	Points             int  `json:"points"`
}

// Normalize decodes a raw quiz document and maps every legacy field variant
// onto the canonical shape. The document's own id field, if any, is ignored;
// the catalog key is authoritative.
func Normalize(quizID string, data []byte) (domain.Quiz, error) {
	var raw rawQuiz
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Quiz{}, fmt.Errorf("decode quiz %s: %w", quizID, err)
	}

	quiz := domain.Quiz{
		ID:               quizID,
		Title:            firstNonEmpty(raw.QuizTitle, raw.QuizTitleUpper, raw.Title),
		TimeLimitMinutes: firstPositive(raw.TimeLimit, raw.TimeLimitMins, DefaultTimeLimitMinutes),
		Questions:        make([]domain.Question, 0, len(raw.Questions)),
	}

	pointsSum := 0
	for _, q := range raw.Questions {
		question := domain.Question{
			Text:          firstNonEmpty(q.Text, q.Question, q.QuestionText, q.Title),
			Options:       firstOptions(q.Options, q.Choices, q.Answers),
			CorrectOption: firstIndex(q.CorrectAnswer, q.CorrectOptionIndex, q.Correct),
			Points:        q.Points,
		}
		if question.Points <= 0 {
			question.Points = 1
		}
		pointsSum += question.Points
		quiz.Questions = append(quiz.Questions, question)
	}

	quiz.TotalPoints = raw.TotalPoints
	if quiz.TotalPoints <= 0 {
		quiz.TotalPoints = pointsSum
	}
	return quiz, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstOptions(variants ...[]string) []string {
	for _, v := range variants {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}

func firstIndex(values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}
