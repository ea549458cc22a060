package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/digital-duende/leadfinder/internal/handoff"
	"github.com/digital-duende/leadfinder/internal/model"
)

var handoffOwner string

var handoffCmd = &cobra.Command{
	Use:   "handoff <lead-id>",
	Short: "Hand a qualified lead off to the booking queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		lead, err := env.Store.GetLead(cmd.Context(), handoffOwner, args[0])
		if err != nil {
			return err
		}

		ready, missing := handoff.ValidateReady(lead)
		if !ready {
			return eris.Errorf("lead not ready for handoff, missing: %v", missing)
		}

		brief := handoff.Generate(lead)
		inq := handoff.ToBookingInquiry(lead, brief, time.Now())
		if err := env.Store.SaveBookingInquiry(cmd.Context(), inq); err != nil {
			return err
		}

		if lead.Status == model.StatusNew {
			lead.Status = model.StatusQueued
			if err := env.Store.SaveLead(cmd.Context(), lead); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"brief": brief, "inquiry": inq})
	},
}

func init() {
	handoffCmd.Flags().StringVar(&handoffOwner, "owner", "local", "owner id")
	rootCmd.AddCommand(handoffCmd)
}
