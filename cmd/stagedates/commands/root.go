package commands

import (
	"context"
	"fmt"
	"os"

	"stagedates/internal/telemetry"
	"stagedates/pkg/configutil"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	cfg        Config
)

var rootCmd = &cobra.Command{
	Use:           "stagedates",
	Short:         "stagedates scrapes upcoming performances of theater productions into a json feed.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		loaded, err := configutil.Load(configPath, DefaultConfig())
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging.")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The config file to read, <name>.local.json5 is merged over it.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
