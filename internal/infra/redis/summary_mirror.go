package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// SummaryMirror decorates an AttemptStore and mirrors appended attempt
// summaries into a capped Redis list per quiz:
//
//	LPUSH quiz:{quizID}:attempts {json}
//	LTRIM quiz:{quizID}:attempts 0 keep-1
//
// The mirror is a denormalized convenience for dashboards; every mirror write
// is best-effort and the wrapped store stays authoritative.
type SummaryMirror struct {
	app.AttemptStore
	client *redis.Client
	keep   int64
}

func NewSummaryMirror(client *redis.Client, store app.AttemptStore, keep int64) *SummaryMirror {
	if keep <= 0 {
		keep = 100
	}
	return &SummaryMirror{AttemptStore: store, client: client, keep: keep}
}

func (m *SummaryMirror) AppendSummary(ctx context.Context, quizID string, summary domain.AttemptSummary) error {
	if err := m.AttemptStore.AppendSummary(ctx, quizID, summary); err != nil {
		return err
	}
	if data, err := json.Marshal(summary); err == nil {
		key := m.key(quizID)
		pipe := m.client.Pipeline()
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, m.keep-1)
		_, _ = pipe.Exec(ctx)
	}
	return nil
}

// RecentSummaries reads the mirrored feed without touching the store.
func (m *SummaryMirror) RecentSummaries(ctx context.Context, quizID string, n int64) ([]domain.AttemptSummary, error) {
	if n <= 0 || n > m.keep {
		n = m.keep
	}
	raw, err := m.client.LRange(ctx, m.key(quizID), 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.AttemptSummary, 0, len(raw))
	for _, item := range raw {
		var summary domain.AttemptSummary
		if err := json.Unmarshal([]byte(item), &summary); err != nil {
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (m *SummaryMirror) key(quizID string) string {
	return "quiz:" + quizID + ":attempts"
}
