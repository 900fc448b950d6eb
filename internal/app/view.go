package app

import (
	"fmt"
	"sort"
	"time"

	"akhlak-learning-service/internal/domain"
)

// ViewOptions parameterize a leaderboard view.
type ViewOptions struct {
	Filter        domain.Filter
	CurrentUserID string
	Limit         int // 0 keeps every entry
	Location      *time.Location
}

// SortRecords orders records by percentage desc, then completedAt asc, then id asc.
// No two distinct records compare equal.
func SortRecords(records []domain.ScoreRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Percentage != b.Percentage {
			return a.Percentage > b.Percentage
		}
		if !a.CompletedAt.Equal(b.CompletedAt) {
			return a.CompletedAt.Before(b.CompletedAt)
		}
		return a.ID < b.ID
	})
}

// BuildLeaderboard filters, ranks and annotates records for one viewer.
// Stats cover the whole filtered set even when Limit truncates entries.
func BuildLeaderboard(records []domain.ScoreRecord, opts ViewOptions, now time.Time) domain.Leaderboard {
	filter := opts.Filter
	if filter == "" {
		filter = domain.FilterAll
	}

	filtered := make([]domain.ScoreRecord, 0, len(records))
	var stats domain.LeaderboardStats
	for _, rec := range records {
		if !filter.Matches(rec) {
			continue
		}
		filtered = append(filtered, rec)
		stats.Total++
		switch rec.Type {
		case domain.SessionQuiz:
			stats.QuizCount++
		case domain.SessionTest:
			stats.TestCount++
		}
	}
	SortRecords(filtered)

	if opts.Limit > 0 && len(filtered) > opts.Limit {
		filtered = filtered[:opts.Limit]
	}

	entries := make([]domain.LeaderboardEntry, len(filtered))
	for i, rec := range filtered {
		name := rec.UserName
		if name == "" {
			name = rec.UserID
		}
		entries[i] = domain.LeaderboardEntry{
			Rank:              i + 1,
			Record:            rec,
			UserDisplayName:   name,
			IsCurrentUser:     opts.CurrentUserID != "" && rec.UserID == opts.CurrentUserID,
			RelativeDateLabel: RelativeDateLabel(rec.CompletedAt, now, opts.Location),
		}
	}

	return domain.Leaderboard{
		Filter:      filter,
		Entries:     entries,
		Stats:       stats,
		Empty:       len(entries) == 0,
		GeneratedAt: now,
	}
}

// RelativeDateLabel describes t relative to now by calendar day in loc (UTC when nil).
func RelativeDateLabel(t, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	days := calendarDays(t.In(loc), now.In(loc))
	switch {
	case days == 0:
		return "Hari ini"
	case days == 1:
		return "Semalam"
	case days > 1 && days < 7:
		return fmt.Sprintf("%d hari lalu", days)
	}
	return t.In(loc).Format("02/01/2006")
}

// calendarDays counts midnights between a and b (positive when a is earlier).
func calendarDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// SummarizeAttempts reduces records to attempt count, rounded mean, max and min percentage.
func SummarizeAttempts(records []domain.ScoreRecord) domain.AttemptStats {
	if len(records) == 0 {
		return domain.AttemptStats{}
	}
	st := domain.AttemptStats{Attempts: len(records), Highest: records[0].Percentage, Lowest: records[0].Percentage}
	sum := 0
	for _, r := range records {
		sum += r.Percentage
		if r.Percentage > st.Highest {
			st.Highest = r.Percentage
		}
		if r.Percentage < st.Lowest {
			st.Lowest = r.Percentage
		}
	}
	n := len(records)
	st.Average = (2*sum + n) / (2 * n)
	return st
}
