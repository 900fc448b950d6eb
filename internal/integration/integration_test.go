package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"akhlak-learning-service/internal/app"
	"akhlak-learning-service/internal/catalog"
	"akhlak-learning-service/internal/domain"
	pginfra "akhlak-learning-service/internal/infra/postgres"
	pgmigrations "akhlak-learning-service/internal/infra/postgres/migrations"
	infraredis "akhlak-learning-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestAssessmentEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := migrateDB(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	if err := pginfra.PublishCatalog(ctx, pool, catalog.Sample()); err != nil {
		t.Fatalf("publish catalog: %v", err)
	}
	loader := pginfra.NewCatalogLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	catalogs := infraredis.NewCatalogRepository(redisClient, loader, 5*time.Minute)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	leaderboard := app.NewLeaderboardService(pginfra.NewScoreStore(db), time.UTC, nil)
	service := app.NewAssessmentService(sessions, catalogs, leaderboard, nil)

	if _, err := service.Start(ctx, app.StartRequest{Type: domain.SessionTest, UserID: "u1", UserName: "Aisyah", Seed: 42}); err != nil {
		t.Fatalf("start: %v", err)
	}
	session, ok := sessions.Get("u1")
	if !ok {
		t.Fatalf("expected session stored")
	}
	for i := 0; i < session.Len(); i++ {
		if _, _, err := service.Answer(ctx, "u1", session.Question(i).CorrectAnswerIndex); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if _, err := service.Next(ctx, "u1"); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
	results, err := service.Finish(ctx, "u1")
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if results.Percentage != 100 || results.Grade != "A+" || results.Total != 30 {
		t.Fatalf("unexpected results %+v", results)
	}

	// A retried submission of the same record is absorbed.
	if err := leaderboard.Submit(ctx, results.Record); err != nil {
		t.Fatalf("resubmit: %v", err)
	}

	lb, err := leaderboard.Query(ctx, app.QueryOptions{Filter: domain.FilterTest, CurrentUserID: "u1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(lb.Entries) != 1 || !lb.Entries[0].IsCurrentUser || lb.Entries[0].Record.ID != results.Record.ID {
		t.Fatalf("unexpected leaderboard %+v", lb.Entries)
	}
	if !lb.Entries[0].Record.CompletedAt.Equal(results.Record.CompletedAt.Truncate(time.Microsecond)) {
		t.Fatalf("completion time not preserved")
	}
}

func TestScoreStoreDuplicateInPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	db := migrateDB(t, ctx, pgURL)
	defer db.Close()

	store := pginfra.NewScoreStore(db)
	rec := domain.ScoreRecord{ID: "r1", UserID: "u1", Type: domain.SessionQuiz, CategoryID: "adab-harian",
		Score: 5, Total: 10, Percentage: 50, CompletedAt: time.Now()}
	if err := store.Record(ctx, rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Record(ctx, rec); !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "akhlak", "POSTGRES_PASSWORD": "akhlakpass", "POSTGRES_DB": "akhlakdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://akhlak:akhlakpass@%s:%s/akhlakdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
