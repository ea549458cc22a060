package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/digital-duende/leadfinder/internal/export"
	"github.com/digital-duende/leadfinder/internal/store"
)

var (
	exportOwner    string
	exportOut      string
	exportMinScore int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the review queue to a spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		leads, err := env.Store.ListLeads(cmd.Context(), exportOwner, store.LeadFilter{
			MinScore: exportMinScore,
		})
		if err != nil {
			return err
		}

		if err := export.WriteXLSX(leads, exportOut); err != nil {
			return err
		}
		fmt.Printf("wrote %d leads to %s\n", len(leads), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOwner, "owner", "local", "owner id")
	exportCmd.Flags().StringVar(&exportOut, "out", "leads.xlsx", "output file path")
	exportCmd.Flags().IntVar(&exportMinScore, "min-score", 0, "only export leads at or above this score")
	rootCmd.AddCommand(exportCmd)
}
