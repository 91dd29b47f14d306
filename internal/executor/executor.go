// Package executor sends one logical trade with bounded retries and
// RPC endpoint rotation.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"solana-razor/internal/domain"
	"solana-razor/internal/observability"
	"solana-razor/internal/pumpportal"
	"solana-razor/internal/storage"
)

// journalTimeout bounds each journal write.
const journalTimeout = 5 * time.Second

// Sender submits a trade request to the trade API.
type Sender interface {
	Trade(ctx context.Context, req domain.TradeRequest) (*pumpportal.TradeResponse, error)
}

// Rotator exposes the current RPC endpoint and advances it on demand.
type Rotator interface {
	Current() string
	Rotate() string
}

// Executor runs the attempt loop for single trade legs.
// It is driven by one goroutine at a time, like the Rotator it holds.
type Executor struct {
	sender     Sender
	rotator    Rotator
	classifier RotationClassifier
	trades     storage.TradeRecordStore
	attempts   storage.AttemptStore
	sessionID  string
	logger     *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Options for creating Executor.
type Options struct {
	// Required
	Sender  Sender
	Rotator Rotator

	// Classifier decides keyword rotation; defaults to NewKeywordClassifier(nil).
	Classifier RotationClassifier

	// Optional journal stores
	TradeRecordStore storage.TradeRecordStore
	AttemptStore     storage.AttemptStore
	SessionID        string

	Logger *slog.Logger

	// Test hooks
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// New creates a new Executor.
func New(opts Options) *Executor {
	e := &Executor{
		sender:     opts.Sender,
		rotator:    opts.Rotator,
		classifier: opts.Classifier,
		trades:     opts.TradeRecordStore,
		attempts:   opts.AttemptStore,
		sessionID:  opts.SessionID,
		logger:     opts.Logger,
		now:        opts.Now,
		sleep:      opts.Sleep,
	}
	if e.classifier == nil {
		e.classifier = NewKeywordClassifier(nil)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With(slog.String("component", "executor"))
	if e.now == nil {
		e.now = time.Now
	}
	if e.sleep == nil {
		e.sleep = sleepContext
	}
	return e
}

// Execute sends req until it succeeds or policy.MaxAttempts attempts are used.
// The request endpoint is refreshed from the rotator before every attempt.
//
// It returns the fill on success and nil once retries are exhausted; failures
// never escape as errors. Canceling ctx stops further attempts.
func (e *Executor) Execute(ctx context.Context, req domain.TradeRequest, policy Policy) *domain.Fill {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	logger := e.logger.With(
		slog.String("trade_id", req.ID),
		slog.String("direction", string(req.Direction)),
		slog.String("mint", req.Mint),
	)
	started := e.now()

	var last domain.Outcome
	attempt := 0
	for attempt < policy.MaxAttempts {
		attempt++
		req = req.WithEndpoint(e.rotator.Current())

		logger.Info("sending trade",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", policy.MaxAttempts),
			slog.String("endpoint", req.Endpoint),
			slog.String("amount", req.Amount.String()),
		)

		attemptStart := e.now()
		outcome := e.attempt(ctx, req, policy.Timeout)
		latency := e.now().Sub(attemptStart)
		last = outcome

		observability.RecordAttempt(string(req.Direction), outcome.Kind.String(), latency.Seconds())

		if outcome.Succeeded() {
			logger.Info("trade succeeded",
				slog.Int("attempt", attempt),
				slog.String("signature", outcome.Signature),
			)
			e.journalAttempt(ctx, req, attempt, outcome, false, latency)

			fill := &domain.Fill{
				TradeID:        req.ID,
				Direction:      req.Direction,
				Mint:           req.Mint,
				Signature:      outcome.Signature,
				ReceivedAmount: outcome.ReceivedAmount,
				Endpoint:       req.Endpoint,
				Attempts:       attempt,
			}
			e.journalTrade(ctx, req, attempt, outcome, started)
			return fill
		}

		more := attempt < policy.MaxAttempts
		rotate, wait := e.decide(outcome, more, policy)

		logger.Warn("trade attempt failed",
			slog.Int("attempt", attempt),
			slog.String("outcome", outcome.Kind.String()),
			slog.String("reason", outcome.Reason),
			slog.String("endpoint", req.Endpoint),
			slog.Bool("rotate", rotate),
		)

		if rotate {
			e.rotator.Rotate()
			observability.RecordRotation(outcome.Kind.String())
		}
		e.journalAttempt(ctx, req, attempt, outcome, rotate, latency)

		if !more {
			break
		}
		if err := e.sleep(ctx, wait); err != nil {
			logger.Warn("retry wait interrupted", slog.Any("error", err))
			break
		}
		if ctx.Err() != nil {
			logger.Warn("trade canceled before next attempt", slog.Any("error", ctx.Err()))
			break
		}
	}

	logger.Error("trade failed after retries",
		slog.Int("attempts", attempt),
		slog.String("last_outcome", last.Kind.String()),
		slog.String("reason", last.Reason),
	)
	e.journalTrade(ctx, req, attempt, last, started)
	return nil
}

// decide returns whether to rotate after a failed attempt and how long to
// wait before the next one. more reports whether another attempt follows.
func (e *Executor) decide(outcome domain.Outcome, more bool, policy Policy) (rotate bool, wait time.Duration) {
	switch outcome.Kind {
	case domain.OutcomeRateLimited:
		return more, policy.RateLimitDelay
	case domain.OutcomeTransportError:
		return true, policy.Delay
	default:
		return e.classifier.ShouldRotate(outcome.Reason), policy.Delay
	}
}

// attempt performs one API call. A panic in the sender is reported as a
// transport error so it consumes an attempt like any other fault.
//
// With a timeout set, the call is detached from ctx: an order already on the
// wire runs to its response or timeout, and cancellation is observed between
// attempts.
func (e *Executor) attempt(ctx context.Context, req domain.TradeRequest, timeout time.Duration) (outcome domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = domain.Outcome{
				Kind:   domain.OutcomeTransportError,
				Reason: fmt.Sprintf("unexpected fault: %v", r),
			}
		}
	}()

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
	}

	resp, err := e.sender.Trade(callCtx, req)
	return Classify(resp, err)
}

func (e *Executor) journalAttempt(ctx context.Context, req domain.TradeRequest, n int, outcome domain.Outcome, rotated bool, latency time.Duration) {
	if e.attempts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	rec := &domain.AttemptRecord{
		TradeID:   req.ID,
		Attempt:   n,
		Direction: req.Direction,
		Mint:      req.Mint,
		Endpoint:  req.Endpoint,
		Outcome:   outcome.Kind.String(),
		Reason:    outcome.Reason,
		Rotated:   rotated,
		LatencyMs: latency.Milliseconds(),
		Timestamp: e.now().UnixMilli(),
	}
	if err := e.attempts.Insert(ctx, rec); err != nil {
		observability.RecordJournalError("attempts")
		e.logger.Warn("journal attempt failed", slog.String("trade_id", req.ID), slog.Any("error", err))
	}
}

func (e *Executor) journalTrade(ctx context.Context, req domain.TradeRequest, attempts int, outcome domain.Outcome, started time.Time) {
	finished := e.now()
	observability.RecordTrade(string(req.Direction), outcome.Succeeded(), float64(finished.Unix()))

	if e.trades == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	rec := &domain.TradeRecord{
		TradeID:    req.ID,
		SessionID:  e.sessionID,
		Direction:  req.Direction,
		Mint:       req.Mint,
		Amount:     req.Amount.String(),
		Endpoint:   req.Endpoint,
		Signature:  outcome.Signature,
		Success:    outcome.Succeeded(),
		Attempts:   attempts,
		StartedAt:  started.UnixMilli(),
		FinishedAt: finished.UnixMilli(),
	}
	if !outcome.Succeeded() {
		rec.Reason = outcome.Reason
	}
	if err := e.trades.Insert(ctx, rec); err != nil {
		observability.RecordJournalError("trades")
		e.logger.Warn("journal trade failed", slog.String("trade_id", req.ID), slog.Any("error", err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
