package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/eddist-go/bbs/internal/config"
	"github.com/eddist-go/bbs/internal/database"
	"github.com/eddist-go/bbs/internal/database/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply every embedded internal migration that has not yet run
against the configured database, then report the ones applied.

eddist-go migrate also runs automatically on every server startup;
this command exists for deploy scripts that want migrations applied
as a separate, explicit step before the server starts.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		log.Warn().Err(err).Msg("no config file found, using defaults")
		cfg = config.Default()
	}
	applyLogConfig(cfg.Logging)

	ctx := context.Background()

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	applied, err := migrations.GetApplied(ctx, db.DB)
	if err != nil {
		return fmt.Errorf("listing applied migrations: %w", err)
	}

	fmt.Printf("%d internal migrations applied:\n", len(applied))
	for _, m := range applied {
		fmt.Printf("  %s (applied %s)\n", m.ID, m.AppliedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}
