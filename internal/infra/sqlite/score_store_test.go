package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"akhlak-learning-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) (*ScoreStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scores.db")
	store, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestScoreStoreRecordAndQuery(t *testing.T) {
	ctx := context.Background()
	store, _ := openStore(t)
	at := time.Date(2025, 6, 1, 10, 0, 0, 123, time.UTC)

	recs := []domain.ScoreRecord{
		{ID: "a", UserID: "u1", Type: domain.SessionQuiz, CategoryID: "adab-harian", Score: 7, Total: 10, Percentage: 70, CompletedAt: at},
		{ID: "b", UserID: "u2", UserName: "Nur", Type: domain.SessionTest, Score: 27, Total: 30, Percentage: 90, Grade: "A+", TimeSpentMs: 600000, CompletedAt: at.Add(time.Minute)},
		{ID: "c", UserID: "u3", Type: domain.SessionQuiz, CategoryID: "akhlak-terpuji", Score: 9, Total: 10, Percentage: 90, CompletedAt: at},
	}
	for _, r := range recs {
		require.NoError(t, store.Record(ctx, r))
	}

	all, err := store.Query(ctx, domain.FilterAll)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, recs[1], all[1])

	quiz, err := store.Query(ctx, domain.FilterQuiz)
	require.NoError(t, err)
	assert.Len(t, quiz, 2)

	test, err := store.Query(ctx, domain.FilterTest)
	require.NoError(t, err)
	require.Len(t, test, 1)
	assert.Equal(t, "A+", test[0].Grade)
}

func TestScoreStoreDuplicateID(t *testing.T) {
	ctx := context.Background()
	store, _ := openStore(t)
	rec := domain.ScoreRecord{ID: "dup", UserID: "u1", Type: domain.SessionTest, Score: 1, Total: 30, Percentage: 3, CompletedAt: time.Now()}

	require.NoError(t, store.Record(ctx, rec))
	assert.ErrorIs(t, store.Record(ctx, rec), domain.ErrDuplicateID)
}

func TestScoreStorePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	store, path := openStore(t)
	require.NoError(t, store.Record(ctx, domain.ScoreRecord{
		ID: "keep", UserID: "u1", Type: domain.SessionTest, Score: 15, Total: 30, Percentage: 50, CompletedAt: time.Now(),
	}))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	all, err := reopened.Query(ctx, domain.FilterAll)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "keep", all[0].ID)
}
