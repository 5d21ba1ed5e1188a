// Package cli defines the pluginhub command tree.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pluginhub",
	Short: "Claude Code plugin directory backend",
	Long:  `pluginhub serves the plugin, skill and MCP server catalog API and runs its background indexing and stats jobs.`,
}

// Root returns the root command for execution by main.
func Root() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.AddCommand(ServeCmd)
	rootCmd.AddCommand(IndexCmd)
	rootCmd.AddCommand(SyncStatsCmd)
	rootCmd.AddCommand(VersionCmd)
}
