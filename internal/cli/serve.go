package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/academic-event-manager/internal/handler"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command, which runs the HTTP API until
// SIGINT or SIGTERM.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, store, err := opts.openService(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			h := handler.NewEventHandler(svc, opts.logger)
			srv := &http.Server{
				Addr:         net.JoinHostPort("", opts.cfg.Server.Port),
				Handler:      handler.NewRouter(h, opts.logger, opts.cfg.Server.AllowedOrigins),
				ReadTimeout:  opts.cfg.Server.ReadTimeout,
				WriteTimeout: opts.cfg.Server.WriteTimeout,
				IdleTimeout:  opts.cfg.Server.IdleTimeout,
			}
			return runServer(ctx, srv, opts.logger)
		},
	}
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
