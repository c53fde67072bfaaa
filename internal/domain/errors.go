package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz definition could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrEmptyQuiz is returned when a quiz has no questions to grade.
	ErrEmptyQuiz = errors.New("quiz has no questions")
	// ErrAttemptNotFound is returned when no attempt record exists for a pair.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptExists signals the store already holds a record for the
	// (student, quiz) pair; callers adopt the existing record instead of
	// creating a duplicate.
	ErrAttemptExists = errors.New("attempt already recorded")
)
