package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elevateandautomate/turnclickstoclients/internal/model"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and edit operator settings",
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		settings, err := st.GetSettings(ctx)
		if err != nil {
			return err
		}

		keys := make([]string, 0, len(settings))
		for k := range settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := settings[k]
			if k == model.KeyLinkedInPassword {
				v = "********"
			}
			fmt.Printf("%s=%s\n", k, v)
		}
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write one setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.SetSetting(ctx, args[0], args[1]); err != nil {
			return err
		}
		zap.L().Info("setting saved", zap.String("key", args[0]))
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
