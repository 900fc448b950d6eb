package memory

import (
	"context"
	"sync"

	"akhlak-learning-service/internal/domain"
)

// ScoreStore keeps score records in process memory.
type ScoreStore struct {
	mu      sync.RWMutex
	records []domain.ScoreRecord
	ids     map[string]struct{}
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{ids: make(map[string]struct{})}
}

func (s *ScoreStore) Record(_ context.Context, rec domain.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[rec.ID]; ok {
		return domain.ErrDuplicateID
	}
	s.ids[rec.ID] = struct{}{}
	s.records = append(s.records, rec)
	return nil
}

func (s *ScoreStore) Query(_ context.Context, filter domain.Filter) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ScoreRecord, 0, len(s.records))
	for _, rec := range s.records {
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}
