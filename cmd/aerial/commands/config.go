package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aerialtv/aerial/internal/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Manage the aerial CLI configuration file.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long: `Create a default configuration file at ~/.aerial/config.yaml

Example:
  aerial config init`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.InitConfig(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		configPath, _ := cli.GetConfigPath()
		fmt.Printf("Configuration file created at: %s\n", configPath)
		fmt.Println("\nPlease edit the file to set your API keys and base URLs.")

		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		fmt.Printf("Default Server: %s\n\n", cfg.DefaultServer)
		fmt.Println("Servers:")
		for name, srvCfg := range cfg.Servers {
			fmt.Printf("  %s:\n", name)
			fmt.Printf("    base_url: %s\n", srvCfg.BaseURL)
			// Mask API key for security
			maskedKey := "***"
			if len(srvCfg.APIKey) > 4 {
				maskedKey = srvCfg.APIKey[:4] + "***"
			}
			fmt.Printf("    api_key: %s\n", maskedKey)
		}

		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <server.key> <value>",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value.

Examples:
  aerial config set local.base_url http://localhost:8077
  aerial config set local.api_key my-secret-key`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		parts := strings.Split(args[0], ".")
		if len(parts) != 2 {
			return fmt.Errorf("invalid key format, expected 'server.key' (e.g., 'local.base_url')")
		}

		serverName := parts[0]
		key := parts[1]
		value := args[1]

		if cfg.Servers == nil {
			cfg.Servers = make(map[string]cli.ServerConfig)
		}

		srvCfg := cfg.Servers[serverName]

		switch key {
		case "base_url":
			srvCfg.BaseURL = value
		case "api_key":
			srvCfg.APIKey = value
		default:
			return fmt.Errorf("unknown key '%s', valid keys: base_url, api_key", key)
		}

		cfg.Servers[serverName] = srvCfg

		if err := cli.SaveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Successfully set %s.%s\n", serverName, key)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configSetCmd)
}
