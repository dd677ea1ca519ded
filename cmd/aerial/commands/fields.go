package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aerialtv/aerial/internal/cli"
	"github.com/aerialtv/aerial/internal/client"
	"github.com/aerialtv/aerial/internal/registry"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields <kind>",
	Short: "Show queryable fields for an entity kind",
	Long: `Show the queryable fields, value types and legal operators for an
entity kind (channel or media).

Examples:
  aerial fields channel
  aerial fields media --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := registry.EntityKind(args[0])
		if !kind.Valid() {
			return fmt.Errorf("unknown entity kind %q (expected channel or media)", args[0])
		}

		srvCfg, _, err := cli.GetServerConfig(server, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(srvCfg.BaseURL, srvCfg.APIKey)
		fields, err := c.Fields(context.Background(), kind)
		if err != nil {
			return fmt.Errorf("failed to fetch fields: %w", err)
		}

		if quiet {
			return nil
		}
		return cli.PrintFields(fields, cli.OutputFormat(format))
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}
