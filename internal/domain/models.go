package domain

import "time"

// Question is a single MCQ in its canonical, normalized shape. The answer key
// is the index into Options.
type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
	Points        int      `json:"points"` // defaults to 1 during normalization
}

// Quiz is a normalized quiz definition, read-only to the attempt session.
type Quiz struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	TimeLimitMinutes int        `json:"timeLimitMinutes"`
	TotalPoints      int        `json:"totalPoints"`
	Questions        []Question `json:"questions"`
}

// QuestionResult is the graded outcome for one question of an attempt.
// StudentAnswer is nil when the question was left unanswered.
type QuestionResult struct {
	QuestionIndex int    `json:"questionIndex"`
	QuestionText  string `json:"questionText"`
	StudentAnswer *int   `json:"studentAnswer"`
	CorrectAnswer int    `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
	Points        int    `json:"points"`
}

// AttemptRecord is the durable outcome of a completed attempt. At most one
// record exists per (StudentID, QuizID); records are never updated or deleted
// by this service.
//
// ScorePercent counts questions answered correctly while TotalScore weighs
// them by points; the two can diverge for unevenly weighted quizzes and both
// are reported as-is.
type AttemptRecord struct {
	ID                  string           `json:"id"`
	StudentID           string           `json:"studentId"`
	QuizID              string           `json:"quizId"`
	QuizTitle           string           `json:"quizTitle"`
	ScorePercent        int              `json:"scorePercent"`
	TotalScore          int              `json:"totalScore"`
	TotalPossiblePoints int              `json:"totalPossiblePoints"`
	CorrectCount        int              `json:"correctCount"`
	TotalQuestions      int              `json:"totalQuestions"`
	Answers             map[int]int      `json:"answers"`
	Results             []QuestionResult `json:"results"`
	TimeSpentMinutes    float64          `json:"timeSpentMinutes"`
	CompletedAt         time.Time        `json:"completedAt"`
}

// AttemptSummary is the lightweight per-quiz view of a completed attempt,
// denormalized for dashboards and reports.
type AttemptSummary struct {
	AttemptID        string    `json:"attemptId"`
	StudentID        string    `json:"studentId"`
	ScorePercent     int       `json:"scorePercent"`
	TimeSpentMinutes float64   `json:"timeSpentMinutes"`
	CompletedAt      time.Time `json:"completedAt"`
}

// Summary derives the denormalized summary row from a persisted record.
func (r AttemptRecord) Summary() AttemptSummary {
	return AttemptSummary{
		AttemptID:        r.ID,
		StudentID:        r.StudentID,
		ScorePercent:     r.ScorePercent,
		TimeSpentMinutes: r.TimeSpentMinutes,
		CompletedAt:      r.CompletedAt,
	}
}
