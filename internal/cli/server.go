package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"akhlak-learning-service/internal/app"
	"akhlak-learning-service/internal/catalog"
	"akhlak-learning-service/internal/config"
	"akhlak-learning-service/internal/logger"
	transport "akhlak-learning-service/internal/transport/http"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the learning service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	if _, err := loadCatalogAtStartup(ctx, b.catalogs, log); err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	leaderboard := app.NewLeaderboardService(b.scores, loc, log.Named("leaderboard"))

	testSize := cfg.Session.TestSize
	if testSize <= 0 {
		testSize = app.DefaultTestSize
	}
	idleTTL := config.TTLDuration(cfg.Session.IdleTTL, 30*time.Minute)
	assessment := app.NewAssessmentService(b.sessions, b.catalogs, leaderboard, log.Named("assessment"),
		app.WithTestSize(testSize),
		app.WithIdleTTL(idleTTL),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", transport.NewWSHandler(assessment, log.Named("ws")).ServeWS)
	transport.NewLeaderboardHandler(leaderboard, cfg.Leaderboard.Limit, log.Named("http")).Register(mux)
	transport.NewTopicsHandler(b.catalogs, log.Named("http")).Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting learning service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return assessment.RunSweeper(gctx, config.TTLDuration(cfg.Session.SweepInterval, time.Minute))
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// loadCatalogAtStartup validates the catalog straight from its loader and
// re-seeds the cache, so a broken source stops startup even when a cached
// copy would still be served.
func loadCatalogAtStartup(ctx context.Context, catalogs catalogSource, log *zap.Logger) (*catalog.Catalog, error) {
	c, err := catalogs.Refresh(ctx)
	if err != nil {
		log.Error("catalog rejected", zap.Error(err))
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	log.Info("catalog loaded",
		zap.String("version", c.Version()),
		zap.Int("topics", len(c.Topics())),
		zap.Int("questions", c.QuestionCount()),
	)
	return c, nil
}
