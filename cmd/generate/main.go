// Command generate runs trait-composition jobs offline from a YAML manifest.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/traitforge-backend/internal/platform/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	logMode string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "generate",
		Short:         "Offline NFT collection generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logMode, "log-mode", envOr("LOG_MODE", "development"), "logger mode (development|production)")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newTokenCmd(opts))
	return cmd
}

func (o *rootOptions) logger() (*logger.Logger, error) {
	log, err := logger.New(o.logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
