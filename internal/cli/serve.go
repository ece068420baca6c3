package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/park285/kingcapture/internal/adapter/presenter"
	"github.com/park285/kingcapture/internal/builder"
	"github.com/park285/kingcapture/internal/httpapi"
)

func (a *app) serveCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve one session over HTTP",
		Long: heredoc.Doc(`serve hosts a single session behind a JSON API:

			  GET  /v1/state        board, turn and score
			  GET  /v1/moves        moves for ?team= and ?from=
			  POST /v1/turn         {"uci":"e2e4"} or {"from":12,"to":28}
			  POST /v1/prepare      {"reset_score":true}
			  GET  /v1/board.png    the board as an image

			When redis_url is set, turn and score events are published
			on <channel_prefix>:<session>:events. When events_ws_url or
			events_webhook_url is set, the same events are pushed there.`),
		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			deps, err := builder.New(ctx, a.cfg, a.logger, builder.WithSessionID(sessionID))
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := deps.Close(closeCtx); err != nil {
					a.logger.Warn("shutdown_incomplete", zap.Error(err))
				}
			}()

			srv := httpapi.New(deps, a.logger)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe(a.cfg.ListenAddr) }()

			f := presenter.NewFormatter(deps.Messages)
			fmt.Fprintln(cmd.OutOrStdout(), f.Listening(a.cfg.ListenAddr, deps.Session.ID()))

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			a.logger.Info("shutdown_requested")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id (generated when empty)")
	return cmd
}
