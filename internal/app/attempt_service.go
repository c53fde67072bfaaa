package app

import (
	"context"

	"quiz-attempt-service/internal/domain"
)

// AttemptService contains the attempt use cases exposed to transports:
// starting sessions, reading results back for the results view and serving
// the per-quiz summary feed.
type AttemptService struct {
	catalog QuizCatalog
	store   AttemptStore
}

func NewAttemptService(catalog QuizCatalog, store AttemptStore) *AttemptService {
	return &AttemptService{catalog: catalog, store: store}
}

// NewSession builds an unstarted attempt session for one student and quiz.
// Each host (websocket connection) owns exactly one session; an abandoned
// session persists nothing and does not block a later attempt.
func (s *AttemptService) NewSession(studentID, quizID string) *AttemptSession {
	return NewAttemptSession(s.catalog, s.store, studentID, quizID)
}

// AttemptResult fetches the persisted record for a (student, quiz) pair.
func (s *AttemptService) AttemptResult(ctx context.Context, studentID, quizID string) (domain.AttemptRecord, error) {
	return s.store.FindAttempt(ctx, studentID, quizID)
}

// QuizSummaries returns the denormalized attempt log for a quiz, newest first.
func (s *AttemptService) QuizSummaries(ctx context.Context, quizID string) ([]domain.AttemptSummary, error) {
	// Summaries exist only for quizzes that resolve; surface unknown ids the
	// same way session initialization does.
	if _, err := s.catalog.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return s.store.ListSummaries(ctx, quizID)
}
