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
	batchLimit    int
	batchFilter   string
	batchResume   bool
	batchHeadless bool
	batchVisible  bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process a batch of contacts through the outreach pipeline",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter := store.ContactFilter(batchFilter)
		switch filter {
		case store.FilterAll, store.FilterPending, store.FilterFailed:
		default:
			return eris.Errorf("invalid filter %q (want all, pending or failed)", batchFilter)
		}

		opts := pipeline.Options{
			Limit:  batchLimit,
			Filter: filter,
			Resume: batchResume,
		}
		if cmd.Flags().Changed("headless") {
			opts.HeadlessOverride = &batchHeadless
		} else if batchVisible {
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
			return eris.Wrap(err, "batch run")
		}
		zap.L().Info("batch complete",
			zap.Int("processed", summary.Processed),
			zap.Int("submitted", summary.Submitted),
			zap.Int("skipped", summary.Skipped),
			zap.Int("failed", summary.Failed),
			zap.Bool("stopped", summary.Stopped))
		return nil
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max contacts to process (default from config)")
	batchCmd.Flags().StringVar(&batchFilter, "filter", "pending", "which contacts to process: all, pending, failed")
	batchCmd.Flags().BoolVar(&batchResume, "resume", false, "resume from the last processed contact")
	batchCmd.Flags().BoolVar(&batchHeadless, "headless", true, "run the browser headless")
	batchCmd.Flags().BoolVar(&batchVisible, "visible", false, "run the browser with a visible window")
	rootCmd.AddCommand(batchCmd)
}
