// Package sqlite is a single-file ScoreStore for local installs, shared safely
// between processes on one machine.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"akhlak-learning-service/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS score_records (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	user_name     TEXT NOT NULL DEFAULT '',
	type          TEXT NOT NULL CHECK (type IN ('quiz', 'test')),
	category_id   TEXT NOT NULL DEFAULT '',
	category_name TEXT NOT NULL DEFAULT '',
	score         INTEGER NOT NULL,
	total         INTEGER NOT NULL,
	percentage    INTEGER NOT NULL,
	grade         TEXT NOT NULL DEFAULT '',
	time_spent_ms INTEGER NOT NULL DEFAULT 0,
	completed_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS score_records_type_idx ON score_records (type);
`

// ScoreStore stores score records in SQLite. completed_at is unix nanoseconds.
type ScoreStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*ScoreStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(time.Minute)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA busy_timeout=5000;"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configure sqlite: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &ScoreStore{db: db}, nil
}

func (s *ScoreStore) Close() error {
	return s.db.Close()
}

func (s *ScoreStore) Record(ctx context.Context, rec domain.ScoreRecord) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO score_records
			(id, user_id, user_name, type, category_id, category_name,
			 score, total, percentage, grade, time_spent_ms, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.UserName, string(rec.Type), rec.CategoryID, rec.CategoryName,
		rec.Score, rec.Total, rec.Percentage, rec.Grade, rec.TimeSpentMs, rec.CompletedAt.UnixNano())
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

func (s *ScoreStore) Query(ctx context.Context, filter domain.Filter) ([]domain.ScoreRecord, error) {
	query := `SELECT id, user_id, user_name, type, category_id, category_name,
		score, total, percentage, grade, time_spent_ms, completed_at
		FROM score_records`
	var args []any
	if filter == domain.FilterQuiz || filter == domain.FilterTest {
		query += ` WHERE type = ?`
		args = append(args, string(filter))
	}
	query += ` ORDER BY percentage DESC, completed_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select score records: %w", err)
	}
	defer rows.Close()

	var out []domain.ScoreRecord
	for rows.Next() {
		var (
			rec         domain.ScoreRecord
			kind        string
			completedAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.UserName, &kind, &rec.CategoryID, &rec.CategoryName,
			&rec.Score, &rec.Total, &rec.Percentage, &rec.Grade, &rec.TimeSpentMs, &completedAt); err != nil {
			return nil, fmt.Errorf("scan score record: %w", err)
		}
		rec.Type = domain.SessionType(kind)
		rec.CompletedAt = time.Unix(0, completedAt).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
