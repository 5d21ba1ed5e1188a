package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pluginhub-dev/pluginhub/internal/hub/config"
	"github.com/pluginhub-dev/pluginhub/internal/hub/database"
	"github.com/pluginhub-dev/pluginhub/internal/hub/statsync"
)

var SyncStatsCmd = &cobra.Command{
	Use:   "sync-stats",
	Short: "Refresh popularity metrics",
	Long:  `Re-fetches GitHub stars and Docker pulls for every active server and records stats snapshots.`,
	RunE:  runSyncStats,
}

func runSyncStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.NewPostgreSQL(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	sum := statsync.New(db, cfg.DockerHubURL, cfg.GitHubToken).Run(ctx)
	fmt.Printf("Stats sync finished: %d updated, %d failed\n", sum.Updated, sum.Failed)
	return nil
}
