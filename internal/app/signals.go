package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// exit is swapped in tests.
var exit = os.Exit

// ForceExitGrace bounds the finalizers run on a forced exit.
var ForceExitGrace = 5 * time.Second

// ShutdownContext returns a context cancelled by the first SIGINT or SIGTERM.
// A second signal runs finalizers, waiting at most ForceExitGrace for them,
// and exits the process with status 130. Call stop to release the signal
// handler.
func ShutdownContext(parent context.Context, logger *slog.Logger, finalizers ...func()) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Warn("received signal, finishing in-flight work", slog.String("signal", sig.String()))
			cancel()
		case <-done:
			return
		}

		select {
		case sig := <-sigCh:
			logger.Error("received second signal, forcing exit", slog.String("signal", sig.String()))
			runFinalizers(finalizers, ForceExitGrace, logger)
			exit(130)
		case <-done:
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(done)
			cancel()
		})
	}
}

func runFinalizers(finalizers []func(), grace time.Duration, logger *slog.Logger) {
	if len(finalizers) == 0 {
		return
	}
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for _, f := range finalizers {
			f()
		}
	}()

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-finished:
	case <-timer.C:
		logger.Error("finalizers did not finish before forced exit", slog.Duration("grace", grace))
	}
}
