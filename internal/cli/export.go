package cli

import (
	"fmt"
	"os"

	"akhlak-learning-service/internal/app"
	"akhlak-learning-service/internal/config"
	"akhlak-learning-service/internal/domain"
	"akhlak-learning-service/internal/export"
	"akhlak-learning-service/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewExportCmd writes the leaderboard to an XLSX file.
func NewExportCmd(configPath *string) *cobra.Command {
	var (
		filter string
		out    string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the leaderboard to an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := domain.ParseFilter(filter)
			if err != nil {
				return err
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log.Level, cfg.Log.Format)
			defer log.Sync()

			b, err := openBackends(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()

			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			lb, err := app.NewLeaderboardService(b.scores, loc, log).Query(cmd.Context(), app.QueryOptions{Filter: f, Limit: limit})
			if err != nil {
				return err
			}

			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := export.WriteLeaderboard(file, lb); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			log.Info("leaderboard exported", zap.String("path", out), zap.Int("entries", len(lb.Entries)))
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "all", "all, quiz or test")
	cmd.Flags().StringVar(&out, "out", "leaderboard.xlsx", "output file")
	cmd.Flags().IntVar(&limit, "limit", 0, "top N entries (0 for all)")
	return cmd
}
