package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/presentation/tui"
	adapter "github.com/aretw0/lattice/pkg/adapters/http"
	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/vars"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Exposes the block registry over HTTP: block descriptions, one-shot activations, chain runs,
persistent sessions backed by the configured store, lifecycle events as SSE and Prometheus metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()

			cfg := rt.Config()
			if addr == "" {
				addr = cfg.HTTP.Addr
			}

			store, locker, closer, err := rt.Sessions()
			if err != nil {
				return err
			}
			defer closer.Close()

			handler := adapter.NewHandler(rt.Registry(),
				adapter.WithContextFactory(func(ctx context.Context, table *vars.Table) *block.Context {
					return rt.NewContext(ctx, table)
				}),
				adapter.WithHooks(rt.Hooks()),
				adapter.WithSessions(store, locker),
				adapter.WithMetrics(rt.MetricsHandler()),
				adapter.WithLogger(rt.Logger()),
				adapter.WithTimeout(cfg.HTTP.Timeout),
				adapter.WithVersion(lattice.Version),
			)

			srv := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			tui.PrintBanner(cmd.ErrOrStderr())
			logger := rt.Logger()

			serverErrors := make(chan error, 1)
			go func() {
				logger.Info("HTTP server listening", "address", addr, "store", cfg.Store.Driver)
				serverErrors <- srv.ListenAndServe()
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				logger.Info("shutdown signal received")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Error("graceful shutdown did not complete", "error", err)
					return srv.Close()
				}
				logger.Info("HTTP server stopped gracefully")
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (defaults to http.addr from the config)")
	return cmd
}
