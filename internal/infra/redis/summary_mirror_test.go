package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

func TestSummaryMirrorWritesThroughAndMirrors(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSummaryMirror(newClient(mr), memory.NewAttemptStore(), 10)

	summary := domain.AttemptSummary{
		AttemptID:        "a1",
		StudentID:        "s1",
		ScorePercent:     80,
		TimeSpentMinutes: 2.5,
		CompletedAt:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.AppendSummary(ctx, "quiz-1", summary); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Authoritative store still serves the feed.
	summaries, err := store.ListSummaries(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 1 || summaries[0].AttemptID != "a1" {
		t.Fatalf("store missed the append: %+v", summaries)
	}

	// And the mirrored list holds the same row.
	if !mr.Exists("quiz:quiz-1:attempts") {
		t.Fatalf("expected mirrored list key")
	}
	mirrored, err := store.RecentSummaries(ctx, "quiz-1", 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(mirrored) != 1 || mirrored[0].ScorePercent != 80 {
		t.Fatalf("mirror missed the append: %+v", mirrored)
	}
}

func TestSummaryMirrorCapsTheList(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSummaryMirror(newClient(mr), memory.NewAttemptStore(), 3)

	for i := 0; i < 5; i++ {
		if err := store.AppendSummary(ctx, "quiz-1", domain.AttemptSummary{AttemptID: string(rune('a' + i))}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	mirrored, err := store.RecentSummaries(ctx, "quiz-1", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(mirrored) != 3 {
		t.Fatalf("expected capped mirror of 3, got %d", len(mirrored))
	}
	if mirrored[0].AttemptID != "e" {
		t.Fatalf("expected newest first, got %+v", mirrored)
	}
}
