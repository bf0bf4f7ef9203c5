package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Sternrassler/pokedex-loader/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Serve a loader session over HTTP",
		Long: `Start an HTTP server holding a single loader session.

Endpoints:
  GET    /health                  Liveness check
  GET    /metrics                 Prometheus metrics
  GET    /api/state               Current loader state
  POST   /api/pages/next          Load and append the next page
  GET    /api/pokemon?q=text      Loaded records filtered by name
  GET    /api/pokemon/{nameOrId}  Resolve one Pokémon
  PUT    /api/selection/{name}    Select a loaded record
  DELETE /api/selection           Clear the selection`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	bindFlags(v, "serve", cmd.Flags())

	return cmd
}

func runServe(ctx context.Context, v *viper.Viper) error {
	logger := logging.NewLogger("server")

	l, cleanup, err := newLoader(ctx, v)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              v.GetString("serve.addr"),
		Handler:           newServer(l, logger).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Starting Pokédex server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
