package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/digital-duende/leadfinder/internal/model"
	"github.com/digital-duende/leadfinder/internal/seeds"
)

var (
	seedsOwner   string
	seedsPersona string
)

var seedsCmd = &cobra.Command{
	Use:   "seeds",
	Short: "Manage discovery seed queries",
}

var seedsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored seeds for an owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		list, err := env.Store.ListSeeds(cmd.Context(), seedsOwner, model.Persona(seedsPersona))
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	},
}

var seedsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Install the default seed catalog for an owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		defaults, err := seeds.Defaults(seedsOwner, model.Persona(seedsPersona))
		if err != nil {
			return err
		}
		for i := range defaults {
			if err := env.Store.SaveSeed(cmd.Context(), &defaults[i]); err != nil {
				return err
			}
		}
		fmt.Printf("installed %d seeds for %s (%s)\n", len(defaults), seedsOwner, seedsPersona)
		return nil
	},
}

var seedsDeleteCmd = &cobra.Command{
	Use:   "delete <seed-id>",
	Short: "Delete a seed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Store.DeleteSeed(cmd.Context(), seedsOwner, args[0]); err != nil {
			return err
		}
		fmt.Println("deleted", args[0])
		return nil
	},
}

func init() {
	seedsCmd.PersistentFlags().StringVar(&seedsOwner, "owner", "local", "owner id")
	seedsCmd.PersistentFlags().StringVar(&seedsPersona, "persona", "performer", "seed persona (performer or instructor)")
	seedsCmd.AddCommand(seedsListCmd, seedsInitCmd, seedsDeleteCmd)
	rootCmd.AddCommand(seedsCmd)
}
