package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/digital-duende/leadfinder/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "leadfinder",
	Short: "Lead discovery and qualification pipeline",
	Long:  "Scans venue websites, extracts contact and fit signals, dedupes, scores, and quality-gates leads for DJ booking outreach.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
