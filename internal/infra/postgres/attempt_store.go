package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"quiz-attempt-service/internal/domain"
)

const uniqueViolation = "23505"

// AttemptStore persists attempt records in Postgres. The unique index on
// (student_id, quiz_id) is what makes the single-attempt invariant hold even
// when two sessions race past the initialize-time existence check.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) FindAttempt(ctx context.Context, studentID, quizID string) (domain.AttemptRecord, error) {
	const q = `
		SELECT id, student_id, quiz_id, quiz_title, score_percent, total_score,
		       total_possible_points, correct_count, total_questions,
		       answers, results, time_spent_minutes, completed_at
		FROM quiz_attempts
		WHERE student_id=$1 AND quiz_id=$2`

	var record domain.AttemptRecord
	var answers, results []byte
	err := s.pool.QueryRow(ctx, q, studentID, quizID).Scan(
		&record.ID, &record.StudentID, &record.QuizID, &record.QuizTitle,
		&record.ScorePercent, &record.TotalScore, &record.TotalPossiblePoints,
		&record.CorrectCount, &record.TotalQuestions,
		&answers, &results, &record.TimeSpentMinutes, &record.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AttemptRecord{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("find attempt: %w", err)
	}
	if err := json.Unmarshal(answers, &record.Answers); err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("decode answers: %w", err)
	}
	if err := json.Unmarshal(results, &record.Results); err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("decode results: %w", err)
	}
	return record, nil
}

// CreateAttempt inserts the record, letting the database assign completed_at.
// A unique violation maps to domain.ErrAttemptExists so the caller can adopt
// the record that already landed.
func (s *AttemptStore) CreateAttempt(ctx context.Context, record domain.AttemptRecord) (domain.AttemptRecord, error) {
	answers, err := json.Marshal(record.Answers)
	if err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("encode answers: %w", err)
	}
	results, err := json.Marshal(record.Results)
	if err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("encode results: %w", err)
	}

	record.ID = uuid.NewString()
	const q = `
		INSERT INTO quiz_attempts (
			id, student_id, quiz_id, quiz_title, score_percent, total_score,
			total_possible_points, correct_count, total_questions,
			answers, results, time_spent_minutes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING completed_at`

	err = s.pool.QueryRow(ctx, q,
		record.ID, record.StudentID, record.QuizID, record.QuizTitle,
		record.ScorePercent, record.TotalScore, record.TotalPossiblePoints,
		record.CorrectCount, record.TotalQuestions,
		answers, results, record.TimeSpentMinutes,
	).Scan(&record.CompletedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.AttemptRecord{}, domain.ErrAttemptExists
		}
		return domain.AttemptRecord{}, fmt.Errorf("create attempt: %w", err)
	}
	return record, nil
}

func (s *AttemptStore) AppendSummary(ctx context.Context, quizID string, summary domain.AttemptSummary) error {
	const q = `
		INSERT INTO quiz_attempt_summaries (
			quiz_id, attempt_id, student_id, score_percent, time_spent_minutes, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6)`

	_, err := s.pool.Exec(ctx, q,
		quizID, summary.AttemptID, summary.StudentID,
		summary.ScorePercent, summary.TimeSpentMinutes, summary.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("append summary: %w", err)
	}
	return nil
}

func (s *AttemptStore) ListSummaries(ctx context.Context, quizID string) ([]domain.AttemptSummary, error) {
	const q = `
		SELECT attempt_id, student_id, score_percent, time_spent_minutes, completed_at
		FROM quiz_attempt_summaries
		WHERE quiz_id=$1
		ORDER BY completed_at DESC`

	rows, err := s.pool.Query(ctx, q, quizID)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var summaries []domain.AttemptSummary
	for rows.Next() {
		var summary domain.AttemptSummary
		if err := rows.Scan(
			&summary.AttemptID, &summary.StudentID, &summary.ScorePercent,
			&summary.TimeSpentMinutes, &summary.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}
