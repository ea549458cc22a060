package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/digital-duende/leadfinder/internal/model"
	"github.com/digital-duende/leadfinder/internal/store"
)

var (
	leadsOwner    string
	leadsStatus   string
	leadsPriority string
	leadsMinScore int
	leadsLimit    int
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List and inspect leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		list, err := env.Store.ListLeads(cmd.Context(), leadsOwner, store.LeadFilter{
			Status:   model.LeadStatus(leadsStatus),
			Priority: model.Priority(leadsPriority),
			MinScore: leadsMinScore,
			Limit:    leadsLimit,
		})
		if err != nil {
			return err
		}

		for _, l := range list {
			fmt.Printf("%-36s  %3d  %s  %-10s  %s\n", l.LeadID, l.Score, l.Priority, l.Status, l.EntityName)
		}
		fmt.Printf("%d leads\n", len(list))
		return nil
	},
}

var leadsShowCmd = &cobra.Command{
	Use:   "show <lead-id>",
	Short: "Show one lead as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		lead, err := env.Store.GetLead(cmd.Context(), leadsOwner, args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(lead)
	},
}

func init() {
	leadsCmd.PersistentFlags().StringVar(&leadsOwner, "owner", "local", "owner id")
	leadsCmd.Flags().StringVar(&leadsStatus, "status", "", "filter by status")
	leadsCmd.Flags().StringVar(&leadsPriority, "priority", "", "filter by priority (P1/P2/P3)")
	leadsCmd.Flags().IntVar(&leadsMinScore, "min-score", 0, "minimum score")
	leadsCmd.Flags().IntVar(&leadsLimit, "limit", 0, "max leads to list")
	leadsCmd.AddCommand(leadsShowCmd)
	rootCmd.AddCommand(leadsCmd)
}
