package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aerialtv/aerial/internal/store"
)

var (
	exportOutput string
)

// ExportFormat represents the structure for exporting collections
type ExportFormat struct {
	Collections []store.Collection `yaml:"collections" json:"collections"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export collections to a file",
	Long: `Export all collection definitions to a YAML or JSON file.

Examples:
  aerial export --output collections.yaml
  aerial export --output collections.json --format json
  aerial export > backup.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		collections, err := c.ListCollections(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list collections: %w", err)
		}

		exportData := ExportFormat{Collections: collections}

		var output *os.File
		if exportOutput == "" || exportOutput == "-" {
			output = os.Stdout
		} else {
			output, err = os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer output.Close()
		}

		switch format {
		case "json":
			encoder := json.NewEncoder(output)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(exportData); err != nil {
				return fmt.Errorf("failed to encode JSON: %w", err)
			}
		case "yaml", "table":
			// Default to YAML for export
			encoder := yaml.NewEncoder(output)
			defer encoder.Close()
			encoder.SetIndent(2)
			if err := encoder.Encode(exportData); err != nil {
				return fmt.Errorf("failed to encode YAML: %w", err)
			}
		default:
			return fmt.Errorf("unsupported export format: %s", format)
		}

		if exportOutput != "" && exportOutput != "-" && !quiet {
			fmt.Fprintf(os.Stderr, "Successfully exported %d collection(s) to %s\n", len(collections), exportOutput)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
}
