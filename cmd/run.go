package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elevateandautomate/turnclickstoclients/internal/pipeline"
)

var runVisible bool

var runCmd = &cobra.Command{
	Use:   "run <contact-id>",
	Short: "Process a single contact through the outreach pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		opts := pipeline.Options{SpecificID: args[0], Limit: 1}
		if runVisible {
			visible := false
			opts.HeadlessOverride = &visible
		}

		runner := pipeline.NewRunner(cfg, st)
		go func() {
			<-ctx.Done()
			runner.Stop()
		}()

		summary, err := runner.Run(ctx, opts)
		if err != nil {
			return eris.Wrap(err, "run contact")
		}
		if summary.Processed == 0 && !summary.Stopped {
			return eris.Errorf("contact %s not found", args[0])
		}
		zap.L().Info("contact processed",
			zap.String("id", args[0]),
			zap.Int("submitted", summary.Submitted),
			zap.Int("failed", summary.Failed))
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runVisible, "visible", false, "run the browser with a visible window")
	rootCmd.AddCommand(runCmd)
}
