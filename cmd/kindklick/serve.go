package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"kindklick/internal/api"
	"kindklick/internal/services"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the policy HTTP server and approval sweeper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.logger.Info("starting kindklick", "version", version, "storage", a.cfg.Storage.Backend)

			sweeper := services.NewSweeper(a.approvals, a.cfg.Policy.SweepSchedule, a.logger)
			if err := sweeper.Start(ctx); err != nil {
				return err
			}
			defer sweeper.Stop()

			router := api.NewRouter(api.Services{
				Gate:       a.gate,
				Approvals:  a.approvals,
				Requests:   a.requests,
				Settings:   a.settings,
				Navigator:  a.navigator,
				Dispatcher: a.dispatcher,
				Metrics:    a.metrics,
			}, a.logger, version, a.cfg.Storage.Backend)

			server := &http.Server{
				Addr:         a.cfg.Server.Addr(),
				Handler:      router.Setup(),
				ReadTimeout:  time.Duration(a.cfg.Server.ReadTimeoutSeconds) * time.Second,
				WriteTimeout: time.Duration(a.cfg.Server.WriteTimeoutSeconds) * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("http server listening", "addr", server.Addr)
				if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			a.logger.Info("kindklick stopped")
			return nil
		},
	}
}
