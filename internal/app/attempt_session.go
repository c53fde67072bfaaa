package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"quiz-attempt-service/internal/domain"
)

// State is the lifecycle phase of one attempt session. Completed, Blocked and
// Failed are terminal; Scoring is left only by a successful persist.
type State string

const (
	StateLoading    State = "loading"
	StateBlocked    State = "blocked"
	StateInProgress State = "in_progress"
	StateScoring    State = "scoring"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// AttemptStore persists completed attempts. FindAttempt returns
// domain.ErrAttemptNotFound when no record exists; CreateAttempt returns
// domain.ErrAttemptExists instead of writing a duplicate for the same
// (student, quiz) pair.
type AttemptStore interface {
	FindAttempt(ctx context.Context, studentID, quizID string) (domain.AttemptRecord, error)
	CreateAttempt(ctx context.Context, record domain.AttemptRecord) (domain.AttemptRecord, error)
	AppendSummary(ctx context.Context, quizID string, summary domain.AttemptSummary) error
	ListSummaries(ctx context.Context, quizID string) ([]domain.AttemptSummary, error)
}

// QuizCatalog loads normalized quiz definitions.
type QuizCatalog interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// AttemptSession drives one student's attempt at one quiz from initialization
// through scoring to a terminal state. It is owned by a single host (one
// websocket connection); the host schedules Tick once per second and forwards
// user actions. All methods are safe to call from the ticker and the reader
// goroutine concurrently; a racing timer expiry and manual submit produce
// exactly one record.
type AttemptSession struct {
	studentID string
	quizID    string
	catalog   QuizCatalog
	store     AttemptStore

	mu               sync.Mutex
	state            State
	quiz             domain.Quiz
	answers          map[int]int
	remainingSeconds int
	pending          *domain.AttemptRecord // scored, not yet persisted
	persisting       bool
	record           *domain.AttemptRecord // persisted or prior attempt
}

// TickResult reports the countdown after one tick. When the counter reached
// zero this tick, Submit carries the outcome of the automatic submission.
type TickResult struct {
	RemainingSeconds int
	Expired          bool
	Submit           *SubmitResult
	SubmitErr        error
}

// SubmitResult reports where a submission left the session. Record is set
// once persistence succeeded, or for terminal states that already hold one.
type SubmitResult struct {
	State     State
	AttemptID string
	Record    *domain.AttemptRecord
}

// NewAttemptSession builds an unstarted session. The student identity is
// always injected by the caller; the session never reads ambient user state.
func NewAttemptSession(catalog QuizCatalog, store AttemptStore, studentID, quizID string) *AttemptSession {
	return &AttemptSession{
		studentID: studentID,
		quizID:    quizID,
		catalog:   catalog,
		store:     store,
		state:     StateLoading,
		answers:   make(map[int]int),
	}
}

// Initialize loads the quiz definition, checks for a prior attempt and either
// arms the countdown or settles into a terminal state. It performs no writes.
func (s *AttemptSession) Initialize(ctx context.Context) (State, error) {
	s.mu.Lock()
	if s.state != StateLoading {
		st := s.state
		s.mu.Unlock()
		return st, nil
	}
	s.mu.Unlock()

	quiz, err := s.catalog.GetQuiz(ctx, s.quizID)
	if err != nil {
		return s.fail(), fmt.Errorf("load quiz %s: %w", s.quizID, err)
	}

	prior, err := s.store.FindAttempt(ctx, s.studentID, s.quizID)
	switch {
	case err == nil:
		s.mu.Lock()
		s.state = StateBlocked
		s.record = &prior
		for k, v := range prior.Answers {
			s.answers[k] = v
		}
		s.mu.Unlock()
		return StateBlocked, nil
	case errors.Is(err, domain.ErrAttemptNotFound):
		// first attempt, fall through
	default:
		return s.fail(), fmt.Errorf("check prior attempt: %w", err)
	}

	if len(quiz.Questions) == 0 {
		return s.fail(), fmt.Errorf("quiz %s: %w", s.quizID, domain.ErrEmptyQuiz)
	}

	s.mu.Lock()
	s.quiz = quiz
	s.remainingSeconds = quiz.TimeLimitMinutes * 60
	s.state = StateInProgress
	s.mu.Unlock()
	return StateInProgress, nil
}

// SelectAnswer records the chosen option for a question and returns a copy of
// the answer map. Calls outside in_progress or with an out-of-range question
// index are silently ignored; the UI may race with the submit transition.
func (s *AttemptSession) SelectAnswer(questionIndex, optionIndex int) map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateInProgress && questionIndex >= 0 && questionIndex < len(s.quiz.Questions) {
		s.answers[questionIndex] = optionIndex
	}
	return s.answersLocked()
}

// Tick advances the countdown by one second. When the counter reaches zero
// the session submits itself once; later ticks are no-ops by the state guard.
func (s *AttemptSession) Tick(ctx context.Context) TickResult {
	s.mu.Lock()
	if s.state != StateInProgress {
		remaining := s.remainingSeconds
		s.mu.Unlock()
		return TickResult{RemainingSeconds: remaining}
	}
	if s.remainingSeconds > 0 {
		s.remainingSeconds--
	}
	remaining := s.remainingSeconds
	s.mu.Unlock()

	if remaining > 0 {
		return TickResult{RemainingSeconds: remaining}
	}
	result, err := s.Submit(ctx, true)
	return TickResult{RemainingSeconds: remaining, Expired: true, Submit: &result, SubmitErr: err}
}

// Submit grades the attempt and persists the record. It is idempotent: once
// the session has left in_progress, further calls either retry a failed
// persist (from scoring) or report the settled outcome. A retry that finds
// the first write actually landed adopts the existing record rather than
// creating a duplicate.
func (s *AttemptSession) Submit(ctx context.Context, auto bool) (SubmitResult, error) {
	s.mu.Lock()
	switch s.state {
	case StateInProgress:
		record := s.scoreLocked()
		s.pending = &record
		s.state = StateScoring
	case StateScoring:
		if s.persisting || s.pending == nil {
			s.mu.Unlock()
			return SubmitResult{State: StateScoring}, nil
		}
	default:
		result := SubmitResult{State: s.state, Record: s.record}
		if s.record != nil {
			result.AttemptID = s.record.ID
		}
		s.mu.Unlock()
		return result, nil
	}
	s.persisting = true
	pending := *s.pending
	s.mu.Unlock()

	stored, err := s.store.CreateAttempt(ctx, pending)
	if errors.Is(err, domain.ErrAttemptExists) {
		// An earlier write landed but its response was lost; adopt it.
		stored, err = s.store.FindAttempt(ctx, s.studentID, s.quizID)
	}

	s.mu.Lock()
	s.persisting = false
	if err != nil {
		s.mu.Unlock()
		log.Printf("attempt persist failed for student %s quiz %s: %v", s.studentID, s.quizID, err)
		return SubmitResult{State: StateScoring}, fmt.Errorf("persist attempt: %w", err)
	}
	s.record = &stored
	s.state = StateCompleted
	s.mu.Unlock()

	if auto {
		log.Printf("time expired, auto-submitted attempt %s for quiz %s", stored.ID, s.quizID)
	}
	if err := s.store.AppendSummary(ctx, s.quizID, stored.Summary()); err != nil {
		// Best-effort denormalization; never rolls back the attempt.
		log.Printf("append attempt summary for quiz %s: %v", s.quizID, err)
	}
	return SubmitResult{State: StateCompleted, AttemptID: stored.ID, Record: &stored}, nil
}

// State returns the current lifecycle phase.
func (s *AttemptSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RemainingSeconds returns the countdown value.
func (s *AttemptSession) RemainingSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingSeconds
}

// Quiz returns the loaded definition, including the answer key. Hosts must
// sanitize before shipping questions to clients.
func (s *AttemptSession) Quiz() domain.Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiz
}

// Answers returns a copy of the current answer map.
func (s *AttemptSession) Answers() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answersLocked()
}

// Result returns the persisted record (or the prior attempt for a blocked
// session) when one exists.
func (s *AttemptSession) Result() (domain.AttemptRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return domain.AttemptRecord{}, false
	}
	return *s.record, true
}

func (s *AttemptSession) fail() State {
	s.mu.Lock()
	s.state = StateFailed
	s.mu.Unlock()
	return StateFailed
}

func (s *AttemptSession) answersLocked() map[int]int {
	answers := make(map[int]int, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	return answers
}

// scoreLocked grades the attempt as a pure function of the quiz definition
// and the answer map, frozen at the moment of submission. ScorePercent counts
// questions while TotalScore weighs points; both values are persisted as is.
func (s *AttemptSession) scoreLocked() domain.AttemptRecord {
	correctCount := 0
	totalScore := 0
	results := make([]domain.QuestionResult, 0, len(s.quiz.Questions))
	for i, question := range s.quiz.Questions {
		result := domain.QuestionResult{
			QuestionIndex: i,
			QuestionText:  question.Text,
			CorrectAnswer: question.CorrectOption,
			Points:        question.Points,
		}
		if answer, ok := s.answers[i]; ok {
			answer := answer
			result.StudentAnswer = &answer
			result.IsCorrect = answer == question.CorrectOption
		}
		if result.IsCorrect {
			correctCount++
			totalScore += question.Points
		}
		results = append(results, result)
	}

	totalQuestions := len(s.quiz.Questions)
	scorePercent := int(math.Round(100 * float64(correctCount) / float64(totalQuestions)))
	timeSpent := float64(s.quiz.TimeLimitMinutes) - float64(s.remainingSeconds)/60

	return domain.AttemptRecord{
		StudentID:           s.studentID,
		QuizID:              s.quizID,
		QuizTitle:           s.quiz.Title,
		ScorePercent:        scorePercent,
		TotalScore:          totalScore,
		TotalPossiblePoints: s.quiz.TotalPoints,
		CorrectCount:        correctCount,
		TotalQuestions:      totalQuestions,
		Answers:             s.answersLocked(),
		Results:             results,
		TimeSpentMinutes:    timeSpent,
	}
}
