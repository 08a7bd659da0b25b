package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"imagepress/internal/transport"
)

func newServeCommand(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := openContainer(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			cfg := c.GetConfig()
			logger := c.GetLogger()
			if addr != "" {
				cfg.Server.Addr = addr
			}

			handlerOpts := []transport.HandlerOption{transport.WithMaxImageBytes(cfg.MaxImageBytes)}
			if history := c.GetHistoryRepository(); history != nil {
				handlerOpts = append(handlerOpts, transport.WithHistory(history))
			}
			if cfg.DebugMode {
				handlerOpts = append(handlerOpts, transport.WithDebugWriter(transport.NewDebugWriter(cfg.DebugDir, logger)))
			}
			handler := transport.NewHandler(logger, c.GetSessionStore(), c.GetNormalizer(), c.GetStatisticsService(), handlerOpts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go c.GetSessionStore().Run(ctx, cfg.SweepInterval)

			srv := &http.Server{
				Addr:         cfg.Server.Addr,
				Handler:      transport.NewRouter(handler),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP server listening", "addr", cfg.Server.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("Shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}
