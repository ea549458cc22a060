package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var quotaOwner string

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show the owner's monthly search quota",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		q, err := env.Store.GetQuota(cmd.Context(), quotaOwner)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d/%d used, %d remaining\n", q.Month, q.Used, q.Limit, q.Remaining)
		return nil
	},
}

func init() {
	quotaCmd.Flags().StringVar(&quotaOwner, "owner", "local", "owner id")
	rootCmd.AddCommand(quotaCmd)
}
