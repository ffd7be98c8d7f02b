package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elevateandautomate/turnclickstoclients/internal/pipeline"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current batch processing status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		snap, err := pipeline.ReadSnapshot(ctx, st)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
