package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
)

func TestCatalogCacheHitsLoaderOnce(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.Quiz{
			"quiz-1": sampleQuiz(),
		}),
	}
	cache := NewCatalogCache(loader, time.Minute)

	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestCatalogCachePropagatesNotFound(t *testing.T) {
	cache := NewCatalogCache(NewStaticQuizLoader(nil), time.Minute)
	if _, err := cache.GetQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:               "quiz-1",
		Title:            "Arithmetic",
		TimeLimitMinutes: 1,
		TotalPoints:      1,
		Questions: []domain.Question{
			{
				Text:          "What is 2 + 2?",
				Options:       []string{"3", "4", "5"},
				CorrectOption: 1,
				Points:        1,
			},
		},
	}
}
