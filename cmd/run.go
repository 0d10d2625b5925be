package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot and serve chat updates until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp()
			if err != nil {
				return err
			}
			defer func() { _ = app.log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = app.bot.Run(ctx)

			// Let queued ledger write-backs land before the process exits.
			app.library.Wait()

			if errors.Is(err, context.Canceled) {
				app.log.Info("shutting down")
				return nil
			}
			return err
		},
	}
}
