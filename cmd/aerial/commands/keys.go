package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aerialtv/aerial/internal/auth"
	"github.com/aerialtv/aerial/internal/webhook"
)

var keyPrefix string

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Mint API keys and webhook secrets",
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an admin API key and its bcrypt hash",
	Long: `Generate a random admin API key. The plaintext key is shown once;
set ADMIN_API_KEY on the server to either the key itself or the bcrypt
hash, which keeps the plaintext out of the server environment.

Examples:
  aerial keys generate
  aerial keys generate --prefix ask_`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := auth.GenerateAPIKey(keyPrefix)
		if err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
		hash, err := auth.HashAPIKey(key)
		if err != nil {
			return fmt.Errorf("hash key: %w", err)
		}

		if quiet {
			fmt.Println(key)
			return nil
		}
		fmt.Printf("API key (save it now, it is not shown again):\n  %s\n\n", key)
		fmt.Printf("ADMIN_API_KEY value (bcrypt hash):\n  %s\n", hash)
		return nil
	},
}

var keysWebhookSecretCmd = &cobra.Command{
	Use:   "webhook-secret",
	Short: "Generate a webhook signing secret",
	Long: `Generate a random HMAC signing secret for webhook deliveries.
Set WEBHOOK_SECRET on the server and share the value with the receiver.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := webhook.GenerateSecret()
		if err != nil {
			return fmt.Errorf("generate secret: %w", err)
		}
		fmt.Println(secret)
		return nil
	},
}

func init() {
	keysGenerateCmd.Flags().StringVar(&keyPrefix, "prefix", auth.DefaultKeyPrefix, "Prefix for the generated key")
	keysCmd.AddCommand(keysGenerateCmd)
	keysCmd.AddCommand(keysWebhookSecretCmd)
	rootCmd.AddCommand(keysCmd)
}
