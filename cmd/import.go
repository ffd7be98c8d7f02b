package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elevateandautomate/turnclickstoclients/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import contacts from a CSV or XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		report, err := importer.File(ctx, st, args[0])
		if err != nil {
			return eris.Wrap(err, "import contacts")
		}

		zap.L().Info("import complete",
			zap.Int("imported", report.Imported),
			zap.Int("skipped", report.Skipped),
			zap.String("file", args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
