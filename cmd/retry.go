package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elevateandautomate/turnclickstoclients/internal/pipeline"
	"github.com/elevateandautomate/turnclickstoclients/internal/store"
)

var (
	retryLimit int
	retryID    string
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Reset failed submissions and run them again",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		opts := pipeline.Options{
			Limit:      retryLimit,
			Filter:     store.FilterFailed,
			SpecificID: retryID,
			Retry:      true,
		}

		runner := pipeline.NewRunner(cfg, st)
		go func() {
			<-ctx.Done()
			runner.Stop()
		}()

		summary, err := runner.Run(ctx, opts)
		if err != nil {
			return eris.Wrap(err, "retry run")
		}
		zap.L().Info("retry complete",
			zap.Int("processed", summary.Processed),
			zap.Int("submitted", summary.Submitted),
			zap.Int("failed", summary.Failed))
		return nil
	},
}

func init() {
	retryCmd.Flags().IntVar(&retryLimit, "limit", 0, "max contacts to retry (default from config)")
	retryCmd.Flags().StringVar(&retryID, "id", "", "retry one specific contact")
	rootCmd.AddCommand(retryCmd)
}
