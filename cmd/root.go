package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elevateandautomate/turnclickstoclients/internal/config"
	"github.com/elevateandautomate/turnclickstoclients/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Lead-outreach automation toolkit",
	Long:  "Drives a browser through contact-form discovery, fill and submission per lead, harvests alternate contact channels, follows up on LinkedIn, and journals everything to the table store.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// openStore connects the configured table store backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
