package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tendant/simple-packs/pkg/simplepacks/api"
	"github.com/tendant/simple-packs/pkg/simplepacks/config"
	"github.com/tendant/simple-packs/pkg/simplepacks/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the pack registration HTTP server. POST /packs accepts multipart submissions.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("port", "", "HTTP server port (env: PORT, default 8000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := configFromContext(cmd.Context())
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetString("port")
		if err := config.WithPort(port)(cfg); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()

	shutdownTracer, err := tracing.InitTracer(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Insecure:    cfg.Tracing.Insecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	rt, err := config.Build(ctx, cfg, logger)
	if err != nil {
		_ = shutdownTracer(context.Background())
		return fmt.Errorf("build runtime: %w", err)
	}

	server := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           newHandler(cfg, rt, logger),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server")
	case err = <-serveErr:
		if err != nil {
			logger.Error("Server failed", "err", err)
		}
	}

	return shutdown(server, rt, shutdownTracer, cfg.ShutdownTimeout, err)
}

func newHandler(cfg *config.Config, rt *config.Runtime, logger *slog.Logger) http.Handler {
	packs := api.NewPacksHandler(rt.Service,
		api.WithMaxUploadBytes(cfg.MaxUploadBytes),
		api.WithLogger(logger),
	)

	var opts []api.RouterOption
	if cfg.IsDev() {
		opts = append(opts, api.WithCORS("*"))
	}
	router := api.NewRouter(packs, cfg.RequestTimeout, opts...)
	return otelhttp.NewHandler(router, "packs")
}

// shutdown stops accepting requests, then releases the blob store, the
// database pool and the tracer in that order.
func shutdown(server *http.Server, rt *config.Runtime, shutdownTracer tracing.ShutdownFunc, timeout time.Duration, serveErr error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	errs := []error{serveErr}
	if err := server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if err := rt.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := shutdownTracer(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
	}

	err := errors.Join(errs...)
	if err != nil {
		slog.Error("Shutdown finished with errors", "err", err)
		return err
	}
	slog.Info("Shutdown complete")
	return nil
}
