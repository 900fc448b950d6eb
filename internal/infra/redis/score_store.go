package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"akhlak-learning-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ScoreStore keeps score records in a single Redis hash:
//
//	HSETNX leaderboard:records {recordID} {json}
//
// HSETNX makes the append atomic and rejects reused ids.
type ScoreStore struct {
	client *redis.Client
	key    string
}

func NewScoreStore(client *redis.Client) *ScoreStore {
	return &ScoreStore{client: client, key: "leaderboard:records"}
}

func (s *ScoreStore) Record(ctx context.Context, rec domain.ScoreRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode score record: %w", err)
	}
	added, err := s.client.HSetNX(ctx, s.key, rec.ID, payload).Result()
	if err != nil {
		return fmt.Errorf("store score record: %w", err)
	}
	if !added {
		return domain.ErrDuplicateID
	}
	return nil
}

func (s *ScoreStore) Query(ctx context.Context, filter domain.Filter) ([]domain.ScoreRecord, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load score records: %w", err)
	}
	out := make([]domain.ScoreRecord, 0, len(raw))
	for id, payload := range raw {
		var rec domain.ScoreRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decode score record %s: %w", id, err)
		}
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}
