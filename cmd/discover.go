package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/digital-duende/leadfinder/internal/discovery"
	"github.com/digital-duende/leadfinder/internal/model"
)

var (
	discoverOwner   string
	discoverPersona string
	discoverRegion  string
	discoverMax     int
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run seed-driven auto-discovery",
	Long:  "Expands active seed queries through the search API and pipelines every candidate URL, keeping leads that score at or above the P2 threshold and pass the quality gate. Each search spends one quota unit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Discovery.Discover(cmd.Context(), discoverOwner, model.Persona(discoverPersona), discovery.Options{
			Region:           discoverRegion,
			MaxSeeds:         discoverMax,
			ResultsPerSearch: cfg.Discovery.ResultsPerSearch,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverOwner, "owner", "local", "owner id the leads belong to")
	discoverCmd.Flags().StringVar(&discoverPersona, "persona", "performer", "seed persona (performer or instructor)")
	discoverCmd.Flags().StringVar(&discoverRegion, "region", "", "only process seeds for this region")
	discoverCmd.Flags().IntVar(&discoverMax, "max-seeds", 0, "cap on seeds to process (0 = quota remaining)")
	rootCmd.AddCommand(discoverCmd)
}
