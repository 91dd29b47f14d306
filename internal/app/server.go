package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"solana-razor/internal/observability"
)

const shutdownTimeout = 5 * time.Second

// StartMetricsServer adds a /metrics and /health server on addr to g.
// The listener is bound before returning so a busy port fails fast.
// The server is shut down gracefully when ctx is cancelled.
func StartMetricsServer(ctx context.Context, g *errgroup.Group, addr string, logger *slog.Logger) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Handler:           observability.NewServeMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("metrics server listening", slog.String("addr", ln.Addr().String()))

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return ln.Addr(), nil
}
