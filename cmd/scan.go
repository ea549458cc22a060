package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/digital-duende/leadfinder/internal/pipeline"
)

var (
	scanOwner  string
	scanName   string
	scanCity   string
	scanState  string
	scanSource string
)

var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Scan one URL into a scored lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		out, err := env.Pipeline.Run(cmd.Context(), pipeline.Request{
			OwnerID:    scanOwner,
			URL:        args[0],
			EntityName: scanName,
			City:       scanCity,
			State:      scanState,
			Source:     scanSource,
			SourceURL:  args[0],
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanOwner, "owner", "local", "owner id the lead belongs to")
	scanCmd.Flags().StringVar(&scanName, "name", "", "entity name hint")
	scanCmd.Flags().StringVar(&scanCity, "city", "", "city hint")
	scanCmd.Flags().StringVar(&scanState, "state", "CA", "state hint")
	scanCmd.Flags().StringVar(&scanSource, "source", "manual", "lead source label")
	rootCmd.AddCommand(scanCmd)
}
