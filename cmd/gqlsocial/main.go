package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gqlsocial/cmd/internal/app"
	"gqlsocial/cmd/security/token"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gqlsocial",
		Short:         "GraphQL social API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newGenSecretCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var o app.Overrides

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (GraphQL, feed, health, metrics)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.Run(o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.HTTPAddr, "addr", "", "listen address (overrides GQLSOCIAL_HTTP_ADDR)")
	f.StringVar(&o.LogLevel, "log-level", "", "debug|info|warn|error (overrides GQLSOCIAL_LOG_LEVEL)")
	f.StringVar(&o.EnvFile, "env-file", "", "dotenv file to load before reading the environment (default .env if present)")
	return cmd
}

func newGenSecretCmd() *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "gen-secret",
		Short: "Print a random value suitable for " + token.SecretEnvKey,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if n < token.MinSecretBytes {
				return fmt.Errorf("--bytes must be at least %d", token.MinSecretBytes)
			}
			b := make([]byte, n)
			if _, err := rand.Read(b); err != nil {
				return err
			}
			// Raw URL base64 expands the byte count, so the printed string always clears the minimum.
			_, err := fmt.Fprintln(cmd.OutOrStdout(), base64.RawURLEncoding.EncodeToString(b))
			return err
		},
	}
	cmd.Flags().IntVar(&n, "bytes", 48, "random bytes before encoding")
	return cmd
}
