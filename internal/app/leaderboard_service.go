package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"akhlak-learning-service/internal/domain"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ScoreStore is append-only persistence for score records (memory, Redis, Postgres, SQLite).
type ScoreStore interface {
	// Record appends rec; it returns domain.ErrDuplicateID when rec.ID exists.
	Record(ctx context.Context, rec domain.ScoreRecord) error
	// Query returns every record matching filter, for all users.
	Query(ctx context.Context, filter domain.Filter) ([]domain.ScoreRecord, error)
}

// QueryOptions select a leaderboard view.
type QueryOptions struct {
	Filter        domain.Filter
	CurrentUserID string
	Limit         int
}

// LeaderboardService persists score records and serves ranked views of them.
type LeaderboardService struct {
	store    ScoreStore
	validate *validator.Validate
	loc      *time.Location
	now      func() time.Time
	log      *zap.Logger

	mu          sync.Mutex
	subscribers map[chan domain.ScoreRecord]struct{}
}

func NewLeaderboardService(store ScoreStore, loc *time.Location, log *zap.Logger) *LeaderboardService {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LeaderboardService{
		store:       store,
		validate:    validator.New(),
		loc:         loc,
		now:         time.Now,
		log:         log,
		subscribers: make(map[chan domain.ScoreRecord]struct{}),
	}
}

// NewLeaderboardServiceWithClock is for deterministic relative-date labels in tests.
func NewLeaderboardServiceWithClock(store ScoreStore, loc *time.Location, now func() time.Time) *LeaderboardService {
	s := NewLeaderboardService(store, loc, nil)
	s.now = now
	return s
}

// Submit validates and stores a record. A duplicate id means the write already
// happened (a retried submission), so it is reported as success.
func (s *LeaderboardService) Submit(ctx context.Context, rec domain.ScoreRecord) error {
	if err := s.validate.Struct(rec); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if rec.CompletedAt.IsZero() {
		return fmt.Errorf("%w: record %s has no completion time", domain.ErrInvalidInput, rec.ID)
	}

	err := s.store.Record(ctx, rec)
	switch {
	case errors.Is(err, domain.ErrDuplicateID):
		s.log.Info("score already recorded", zap.String("record_id", rec.ID))
		return nil
	case err != nil:
		s.log.Error("failed to record score", zap.String("record_id", rec.ID), zap.Error(err))
		return err
	}

	s.broadcast(rec)
	return nil
}

// Query builds the ranked view for one viewer.
func (s *LeaderboardService) Query(ctx context.Context, opts QueryOptions) (domain.Leaderboard, error) {
	filter := opts.Filter
	if filter == "" {
		filter = domain.FilterAll
	}
	if _, err := domain.ParseFilter(string(filter)); err != nil {
		return domain.Leaderboard{}, err
	}
	records, err := s.store.Query(ctx, filter)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return BuildLeaderboard(records, ViewOptions{
		Filter:        filter,
		CurrentUserID: opts.CurrentUserID,
		Limit:         opts.Limit,
		Location:      s.loc,
	}, s.now()), nil
}

// UserStats summarizes one user's attempts, optionally narrowed to a category.
func (s *LeaderboardService) UserStats(ctx context.Context, userID string, filter domain.Filter, categoryID string) (domain.AttemptStats, error) {
	records, err := s.store.Query(ctx, filter)
	if err != nil {
		return domain.AttemptStats{}, err
	}
	var mine []domain.ScoreRecord
	for _, r := range records {
		if r.UserID == userID && (categoryID == "" || r.CategoryID == categoryID) {
			mine = append(mine, r)
		}
	}
	return SummarizeAttempts(mine), nil
}

// CategoryStats summarizes every quiz attempt for a category.
func (s *LeaderboardService) CategoryStats(ctx context.Context, categoryID string) (domain.AttemptStats, error) {
	records, err := s.store.Query(ctx, domain.FilterQuiz)
	if err != nil {
		return domain.AttemptStats{}, err
	}
	var matched []domain.ScoreRecord
	for _, r := range records {
		if r.CategoryID == categoryID {
			matched = append(matched, r)
		}
	}
	return SummarizeAttempts(matched), nil
}

// Subscribe returns a channel that receives each newly stored record.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *LeaderboardService) Subscribe() (<-chan domain.ScoreRecord, func()) {
	ch := make(chan domain.ScoreRecord, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *LeaderboardService) broadcast(rec domain.ScoreRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- rec:
		default:
			// Slow subscriber: drop its oldest pending record.
			select {
			case <-ch:
			default:
			}
			ch <- rec
		}
	}
}
