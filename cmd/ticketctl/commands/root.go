package commands

import (
	"github.com/spf13/cobra"
)

var catalogPath string

var rootCmd = &cobra.Command{
	Use:          "ticketctl",
	Short:        "Inspect skill extraction and run ticket auto-assignment",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Skill catalog YAML (defaults to SKILL_CATALOG_PATH or the built-in catalog)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
