package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"quiz-attempt-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptStore, used for
// tests and for running the service without Postgres.
type AttemptStore struct {
	clock func() time.Time

	mu        sync.RWMutex
	records   map[string]domain.AttemptRecord
	summaries map[string][]domain.AttemptSummary
}

func NewAttemptStore() *AttemptStore {
	return NewAttemptStoreWithClock(time.Now)
}

// NewAttemptStoreWithClock allows deterministic completion timestamps in tests.
func NewAttemptStoreWithClock(clock func() time.Time) *AttemptStore {
	return &AttemptStore{
		clock:     clock,
		records:   make(map[string]domain.AttemptRecord),
		summaries: make(map[string][]domain.AttemptSummary),
	}
}

func (s *AttemptStore) FindAttempt(_ context.Context, studentID, quizID string) (domain.AttemptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[attemptKey(studentID, quizID)]
	if !ok {
		return domain.AttemptRecord{}, domain.ErrAttemptNotFound
	}
	return record, nil
}

// CreateAttempt assigns the record its id and completion timestamp. A second
// create for the same pair returns domain.ErrAttemptExists untouched.
func (s *AttemptStore) CreateAttempt(_ context.Context, record domain.AttemptRecord) (domain.AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attemptKey(record.StudentID, record.QuizID)
	if _, ok := s.records[key]; ok {
		return domain.AttemptRecord{}, domain.ErrAttemptExists
	}
	record.ID = uuid.NewString()
	record.CompletedAt = s.clock()
	s.records[key] = record
	return record, nil
}

func (s *AttemptStore) AppendSummary(_ context.Context, quizID string, summary domain.AttemptSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// newest first, matching the Postgres store's ordering
	s.summaries[quizID] = append([]domain.AttemptSummary{summary}, s.summaries[quizID]...)
	return nil
}

func (s *AttemptStore) ListSummaries(_ context.Context, quizID string) ([]domain.AttemptSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]domain.AttemptSummary, len(s.summaries[quizID]))
	copy(summaries, s.summaries[quizID])
	return summaries, nil
}

func attemptKey(studentID, quizID string) string {
	return studentID + "|" + quizID
}
