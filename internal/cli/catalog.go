package cli

import (
	"fmt"

	"akhlak-learning-service/internal/catalog"
	"akhlak-learning-service/internal/config"
	pginfra "akhlak-learning-service/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewCatalogCmd groups catalog maintenance commands.
func NewCatalogCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate or publish content catalogs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Check a catalog JSON file for integrity problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog %s ok: %d topics, %d categories, %d questions\n",
				c.Version(), len(c.Topics()), len(c.Categories()), c.QuestionCount())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "publish <file>",
		Short: "Validate a catalog file and store it in Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			pool, err := pgxpool.Connect(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := pginfra.PublishCatalog(cmd.Context(), pool, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published catalog %s\n", c.Version())
			return nil
		},
	})
	return cmd
}
