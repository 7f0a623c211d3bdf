// Command cardctl manages a card collection from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avvvet/cardvault/internal/cardclient"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	tokenFile string
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "cardctl",
	Short:         "Manage your sports card collection",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("CARDVAULT_URL", "http://localhost:8080"), "card service base URL")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", defaultTokenFile(), "where the session token is cached")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "request timeout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}

func newClient() *cardclient.Client {
	return cardclient.New(serverURL, cardclient.WithTokenCache(cardclient.FileTokenCache{Path: tokenFile}))
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".cardvault-session.json"
	}
	return filepath.Join(dir, "cardvault", "session.json")
}
