package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aerialtv/aerial/internal/store"
)

var (
	importDryRun bool
	importForce  bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import collections from a file",
	Long: `Import collection definitions from a YAML or JSON file. Definitions
carrying an id update the existing collection; the rest are created.

Examples:
  aerial import collections.yaml
  aerial import collections.yaml --dry-run
  aerial import collections.yaml --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		var importData ExportFormat
		if err := yaml.Unmarshal(data, &importData); err != nil {
			return fmt.Errorf("failed to parse file: %w", err)
		}

		if len(importData.Collections) == 0 {
			return fmt.Errorf("no collections found in file")
		}

		if importDryRun {
			fmt.Println("Dry run mode - the following collections would be imported:")
			for _, col := range importData.Collections {
				fmt.Printf("  - %s (kind: %s, enabled: %v)\n", col.Name, col.Kind, col.Enabled)
			}
			return nil
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		ctx := context.Background()

		successCount := 0
		errorCount := 0

		for _, col := range importData.Collections {
			var importErr error
			if col.ID != "" {
				_, importErr = c.UpdateCollection(ctx, col)
			} else {
				_, importErr = c.CreateCollection(ctx, store.Collection{
					Name:    col.Name,
					Kind:    col.Kind,
					Rule:    col.Rule,
					Enabled: col.Enabled,
				})
			}

			if importErr != nil {
				errorCount++
				fmt.Fprintf(os.Stderr, "Failed to import collection '%s': %v\n", col.Name, importErr)
				if !importForce {
					return fmt.Errorf("import failed, use --force to continue on errors")
				}
			} else {
				successCount++
			}
		}

		if !quiet {
			fmt.Printf("Import complete: %d succeeded, %d failed\n", successCount, errorCount)
		}

		if errorCount > 0 && !importForce {
			return fmt.Errorf("import completed with errors")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate without importing")
	importCmd.Flags().BoolVar(&importForce, "force", false, "Continue on errors")
}
