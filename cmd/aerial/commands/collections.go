package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aerialtv/aerial/internal/cli"
	"github.com/aerialtv/aerial/internal/client"
	"github.com/aerialtv/aerial/internal/registry"
	"github.com/aerialtv/aerial/internal/store"
)

var (
	createKind     string
	createRule     string
	createRuleFile string
	createEnabled  bool
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Manage smart collections",
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		collections, err := c.ListCollections(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list collections: %w", err)
		}
		if quiet {
			return nil
		}
		if len(collections) == 0 {
			fmt.Println("No collections found")
			return nil
		}
		return cli.PrintCollections(collections, cli.OutputFormat(format))
	},
}

var collectionsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		col, err := c.GetCollection(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get collection: %w", err)
		}
		if quiet {
			return nil
		}
		return cli.PrintCollection(col, cli.OutputFormat(format))
	},
}

var collectionsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a collection",
	Long: `Create a rule-driven collection.

Examples:
  aerial collections create "HD News" --kind channel --rule '{"conditions":[{"field":"hd","op":"eq","value":"true"},{"field":"group","op":"eq","value":"News"}],"match":"all"}'
  aerial collections create "Recent Movies" --kind media --rule-file rule.json --enabled`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := registry.EntityKind(createKind)
		if !kind.Valid() {
			return fmt.Errorf("unknown entity kind %q (expected channel or media)", createKind)
		}

		rule := createRule
		if createRuleFile != "" {
			data, err := os.ReadFile(createRuleFile)
			if err != nil {
				return fmt.Errorf("failed to read rule file: %w", err)
			}
			rule = string(data)
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		col, err := c.CreateCollection(context.Background(), store.Collection{
			Name:    args[0],
			Kind:    kind,
			Rule:    rule,
			Enabled: createEnabled,
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		if quiet {
			return nil
		}
		return cli.PrintCollection(col, cli.OutputFormat(format))
	},
}

var collectionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.DeleteCollection(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
		if !quiet {
			fmt.Printf("Deleted collection %s\n", args[0])
		}
		return nil
	},
}

var collectionsMaterializeCmd = &cobra.Command{
	Use:   "materialize <id>",
	Short: "Materialize a collection's rule into a member list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		result, err := c.Materialize(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to materialize: %w", err)
		}
		if !quiet {
			fmt.Printf("Materialized %d member(s) for %s (rule %s, snapshot %s)\n",
				result.Count, result.CollectionID, result.Fingerprint, result.ETag)
		}
		return nil
	},
}

var collectionsMembersCmd = &cobra.Command{
	Use:   "members <id>",
	Short: "Show a collection's materialized members",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		members, err := c.Members(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get members: %w", err)
		}
		if quiet {
			return nil
		}
		if len(members) == 0 {
			fmt.Println("No members")
			return nil
		}
		for _, id := range members {
			fmt.Println(id)
		}
		return nil
	},
}

func newClient() (*client.Client, error) {
	srvCfg, _, err := cli.GetServerConfig(server, baseURL, apiKey)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return client.NewClient(srvCfg.BaseURL, srvCfg.APIKey), nil
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
	collectionsCmd.AddCommand(collectionsListCmd)
	collectionsCmd.AddCommand(collectionsGetCmd)
	collectionsCmd.AddCommand(collectionsCreateCmd)
	collectionsCmd.AddCommand(collectionsDeleteCmd)
	collectionsCmd.AddCommand(collectionsMaterializeCmd)
	collectionsCmd.AddCommand(collectionsMembersCmd)

	collectionsCreateCmd.Flags().StringVar(&createKind, "kind", "channel", "Entity kind (channel, media)")
	collectionsCreateCmd.Flags().StringVar(&createRule, "rule", "", "Rule string (JSON)")
	collectionsCreateCmd.Flags().StringVar(&createRuleFile, "rule-file", "", "File containing the rule string")
	collectionsCreateCmd.Flags().BoolVar(&createEnabled, "enabled", false, "Enable the collection immediately")
}
