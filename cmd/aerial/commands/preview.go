package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aerialtv/aerial/internal/cli"
	"github.com/aerialtv/aerial/internal/client"
	"github.com/aerialtv/aerial/internal/registry"
)

var (
	previewRule     string
	previewRuleFile string
	previewLimit    int
)

var previewCmd = &cobra.Command{
	Use:   "preview <kind>",
	Short: "Preview which items a rule matches",
	Long: `Evaluate a rule string against the server's current catalog and show
the matching items. The count reported is the full match count even when the
item list is capped.

Examples:
  aerial preview channel --rule '{"conditions":[{"field":"hd","op":"eq","value":"true"}],"match":"all"}'
  aerial preview media --rule-file rule.json --limit 10 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := registry.EntityKind(args[0])
		if !kind.Valid() {
			return fmt.Errorf("unknown entity kind %q (expected channel or media)", args[0])
		}

		rule := previewRule
		if previewRuleFile != "" {
			data, err := os.ReadFile(previewRuleFile)
			if err != nil {
				return fmt.Errorf("failed to read rule file: %w", err)
			}
			rule = string(data)
		}

		srvCfg, _, err := cli.GetServerConfig(server, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(srvCfg.BaseURL, srvCfg.APIKey)
		result, err := c.Preview(context.Background(), kind, rule, previewLimit)
		if err != nil {
			return fmt.Errorf("preview failed: %w", err)
		}

		if quiet {
			return nil
		}
		return cli.PrintPreview(result, cli.OutputFormat(format))
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <kind>",
	Short: "Lint a rule string against the field registry",
	Long: `Check a rule string for unknown fields, illegal operators and
uncoercible values. Lint warnings never block saving; the engine treats a
bad condition as matching nothing.

Examples:
  aerial validate channel --rule '{"conditions":[{"field":"grup","op":"eq","value":"News"}]}'
  aerial validate media --rule-file rule.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := registry.EntityKind(args[0])
		if !kind.Valid() {
			return fmt.Errorf("unknown entity kind %q (expected channel or media)", args[0])
		}

		rule := previewRule
		if previewRuleFile != "" {
			data, err := os.ReadFile(previewRuleFile)
			if err != nil {
				return fmt.Errorf("failed to read rule file: %w", err)
			}
			rule = string(data)
		}

		srvCfg, _, err := cli.GetServerConfig(server, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(srvCfg.BaseURL, srvCfg.APIKey)
		report, err := c.ValidateRule(context.Background(), kind, rule)
		if err != nil {
			return fmt.Errorf("validate failed: %w", err)
		}

		if quiet {
			if !report.Valid {
				os.Exit(1)
			}
			return nil
		}
		if report.Valid {
			fmt.Println("Rule is valid")
		} else {
			fmt.Printf("Rule has %d issue(s):\n", len(report.Issues))
		}
		for _, issue := range report.Issues {
			if issue.Index >= 0 {
				fmt.Printf("  condition %d: %s\n", issue.Index, issue.Message)
			} else {
				fmt.Printf("  rule: %s\n", issue.Message)
			}
		}
		if !report.Valid {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(validateCmd)

	for _, cmd := range []*cobra.Command{previewCmd, validateCmd} {
		cmd.Flags().StringVar(&previewRule, "rule", "", "Rule string (JSON)")
		cmd.Flags().StringVar(&previewRuleFile, "rule-file", "", "File containing the rule string")
	}
	previewCmd.Flags().IntVar(&previewLimit, "limit", 0, "Item cap (0 = server default, negative = uncapped)")
}
