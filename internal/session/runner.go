// Package session drives trade cycles for a fixed wall-clock budget and
// reports throughput.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"solana-razor/internal/domain"
	"solana-razor/internal/observability"
	"solana-razor/internal/orchestrator"
)

// CycleRunner runs one buy/sell cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context, mint string) orchestrator.CycleResult
}

// Runner owns the session statistics. Cycles run strictly one after another.
type Runner struct {
	cycles    CycleRunner
	sessionID string
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex // guards the fields below against Abort
	stats   domain.SessionStats
	start   time.Time
	mint    string
	count   int                    // cycles run
	summary *domain.SessionSummary // set once finalized
}

// Options for creating Runner.
type Options struct {
	Cycles    CycleRunner
	SessionID string
	Logger    *slog.Logger

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// New creates a Runner with zeroed statistics.
func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		cycles:    opts.Cycles,
		sessionID: opts.SessionID,
		logger:    logger.With(slog.String("component", "session")),
		now:       now,
		stats:     domain.NewSessionStats(now()),
	}
}

// Stats returns a snapshot of the counters.
func (r *Runner) Stats() domain.SessionStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Run trades mint until duration has elapsed or ctx is canceled.
//
// Each cycle gets ctx, so an interrupt stops buy retries at the next attempt
// boundary and the loop exits on its next check. The summary is produced on
// every exit path, including a panic inside a cycle.
func (r *Runner) Run(ctx context.Context, mint string, duration time.Duration) (summary domain.SessionSummary) {
	start := r.now()
	end := start.Add(duration)

	r.mu.Lock()
	r.stats.StartTime = start
	r.start = start
	r.mint = mint
	r.count = 0
	r.summary = nil
	r.mu.Unlock()

	logger := r.logger.With(slog.String("mint", mint))
	logger.Info("starting session",
		slog.String("session_id", r.sessionID),
		slog.Float64("duration_minutes", duration.Minutes()),
	)

	interrupted := false

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("unexpected error, stopping session", slog.String("panic", fmt.Sprint(rec)))
		}
		summary = r.finalize(interrupted)
	}()

	for r.now().Before(end) {
		if ctx.Err() != nil {
			interrupted = true
			logger.Info("session interrupted", slog.Any("reason", context.Cause(ctx)))
			break
		}

		result := r.cycles.RunCycle(ctx, mint)

		r.mu.Lock()
		r.count++
		if result.BuyAttempted {
			r.stats.Record(result.Buy != nil)
		}
		if result.SellAttempted {
			r.stats.Record(result.Sell != nil)
		}
		stats, cycles := r.stats, r.count
		r.mu.Unlock()

		observability.RecordCycle(result.Success())

		elapsed := r.now().Sub(start)
		remaining := duration - elapsed
		if remaining < 0 {
			remaining = 0
		}
		tpm := stats.TradesPerMinute(elapsed)
		observability.UpdateSessionProgress(tpm, remaining.Seconds())

		logger.Info("cycle completed",
			slog.Int("cycle", cycles),
			slog.Bool("success", result.Success()),
			slog.Int("successful_trades", stats.SuccessfulTrades),
			slog.Int("total_trades", stats.TotalTrades),
			slog.String("tpm", fmt.Sprintf("%.1f", tpm)),
			slog.String("remaining_minutes", fmt.Sprintf("%.1f", remaining.Minutes())),
		)
	}
	if ctx.Err() != nil {
		interrupted = true
	}

	return summary
}

// Abort finalizes the session from another goroutine with the counters
// recorded so far, for a forced exit while a cycle is in flight. The summary
// is marked interrupted. A later return from Run yields the same summary.
func (r *Runner) Abort() domain.SessionSummary {
	return r.finalize(true)
}

func (r *Runner) finalize(interrupted bool) domain.SessionSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.summary != nil {
		return *r.summary
	}

	start := r.start
	if start.IsZero() {
		start = r.stats.StartTime
	}
	elapsed := r.now().Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}

	summary := domain.SessionSummary{
		SessionID:        r.sessionID,
		Mint:             r.mint,
		DurationSeconds:  elapsed.Seconds(),
		Cycles:           r.count,
		TotalTrades:      r.stats.TotalTrades,
		SuccessfulTrades: r.stats.SuccessfulTrades,
		FailedTrades:     r.stats.FailedTrades,
		TradesPerMinute:  r.stats.TradesPerMinute(elapsed),
		SuccessRate:      r.stats.SuccessRate(),
		Interrupted:      interrupted,
	}
	r.summary = &summary
	observability.RecordSessionEnd(interrupted)

	r.logger.Info("final statistics",
		slog.String("session_id", summary.SessionID),
		slog.String("mint", summary.Mint),
		slog.String("total_runtime_minutes", fmt.Sprintf("%.1f", elapsed.Minutes())),
		slog.Int("cycles", summary.Cycles),
		slog.Int("total_trades", summary.TotalTrades),
		slog.Int("successful_trades", summary.SuccessfulTrades),
		slog.Int("failed_trades", summary.FailedTrades),
		slog.String("success_rate", fmt.Sprintf("%.1f%%", summary.SuccessRate)),
		slog.String("tpm", fmt.Sprintf("%.1f", summary.TradesPerMinute)),
		slog.Bool("interrupted", summary.Interrupted),
	)
	return summary
}
