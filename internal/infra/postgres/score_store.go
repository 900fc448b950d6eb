package postgres

import (
	"context"
	"fmt"
	"time"

	"akhlak-learning-service/internal/domain"
	"github.com/uptrace/bun"
)

type scoreRow struct {
	bun.BaseModel `bun:"table:score_records"`

	ID           string    `bun:"id,pk"`
	UserID       string    `bun:"user_id,notnull"`
	UserName     string    `bun:"user_name,notnull"`
	Type         string    `bun:"type,notnull"`
	CategoryID   string    `bun:"category_id,notnull"`
	CategoryName string    `bun:"category_name,notnull"`
	Score        int       `bun:"score,notnull"`
	Total        int       `bun:"total,notnull"`
	Percentage   int       `bun:"percentage,notnull"`
	Grade        string    `bun:"grade,notnull"`
	TimeSpentMs  int64     `bun:"time_spent_ms,notnull"`
	CompletedAt  time.Time `bun:"completed_at,notnull"`
}

func toRow(rec domain.ScoreRecord) scoreRow {
	return scoreRow{
		ID:           rec.ID,
		UserID:       rec.UserID,
		UserName:     rec.UserName,
		Type:         string(rec.Type),
		CategoryID:   rec.CategoryID,
		CategoryName: rec.CategoryName,
		Score:        rec.Score,
		Total:        rec.Total,
		Percentage:   rec.Percentage,
		Grade:        rec.Grade,
		TimeSpentMs:  rec.TimeSpentMs,
		CompletedAt:  rec.CompletedAt.UTC(),
	}
}

func (r scoreRow) record() domain.ScoreRecord {
	return domain.ScoreRecord{
		ID:           r.ID,
		UserID:       r.UserID,
		UserName:     r.UserName,
		Type:         domain.SessionType(r.Type),
		CategoryID:   r.CategoryID,
		CategoryName: r.CategoryName,
		Score:        r.Score,
		Total:        r.Total,
		Percentage:   r.Percentage,
		Grade:        r.Grade,
		TimeSpentMs:  r.TimeSpentMs,
		CompletedAt:  r.CompletedAt,
	}
}

// ScoreStore persists score records in the score_records table via bun.
type ScoreStore struct {
	db *bun.DB
}

func NewScoreStore(db *bun.DB) *ScoreStore {
	return &ScoreStore{db: db}
}

func (s *ScoreStore) Record(ctx context.Context, rec domain.ScoreRecord) error {
	row := toRow(rec)
	res, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert score record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert score record: %w", err)
	}
	if n == 0 {
		return domain.ErrDuplicateID
	}
	return nil
}

// Query returns records already in leaderboard order.
func (s *ScoreStore) Query(ctx context.Context, filter domain.Filter) ([]domain.ScoreRecord, error) {
	var rows []scoreRow
	q := s.db.NewSelect().
		Model(&rows).
		OrderExpr("percentage DESC, completed_at ASC, id ASC")
	if filter == domain.FilterQuiz || filter == domain.FilterTest {
		q = q.Where("type = ?", string(filter))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select score records: %w", err)
	}
	out := make([]domain.ScoreRecord, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	return out, nil
}
