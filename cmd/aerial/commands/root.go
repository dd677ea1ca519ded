package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	baseURL string
	apiKey  string
	server  string
	format  string
	quiet   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "aerial",
	Short: "CLI tool for managing aerial smart collections",
	Long: `Aerial is a command-line tool for managing rule-driven channel groups
and media collections on an aerial server.

It provides commands for previewing rules, managing collections, and
importing and exporting collection definitions.

Examples:
  aerial fields channel
  aerial preview channel --rule '{"conditions":[{"field":"group","op":"eq","value":"News"}],"match":"all"}'
  aerial collections list
  aerial collections create "HD News" --kind channel --rule-file rule.json
  aerial export --output collections.yaml
  aerial import collections.yaml`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the aerial API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVar(&server, "server", "", "Named server from the CLI config")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
}
