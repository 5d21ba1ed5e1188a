package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pluginhub-dev/pluginhub/internal/hub/config"
	"github.com/pluginhub-dev/pluginhub/internal/hub/database"
	"github.com/pluginhub-dev/pluginhub/internal/hub/indexer"
)

var IndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index upstream registries",
	Long:  `Fetches the official MCP registry and Docker Hub once and upserts the normalized records into the catalog.`,
	RunE:  runIndex,
}

func runIndex(cmd *cobra.Command, _ []string) error {
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

	run := indexer.New(db, cfg.OfficialRegistryURL, cfg.DockerHubURL).Run(ctx)
	total := run.Total()
	fmt.Printf("Indexing finished: %d indexed, %d failed, %d skipped\n",
		total.Indexed, total.Failed, total.Skipped)
	fmt.Printf("  official:  %d indexed, %d failed, %d skipped\n",
		run.Official.Indexed, run.Official.Failed, run.Official.Skipped)
	fmt.Printf("  dockerhub: %d indexed, %d failed, %d skipped\n",
		run.DockerHub.Indexed, run.DockerHub.Failed, run.DockerHub.Skipped)
	return nil
}
