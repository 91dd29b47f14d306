// Package orchestrator runs trade cycles: one buy immediately followed by
// one sell of the same token.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"solana-razor/internal/domain"
	"solana-razor/internal/executor"
	"solana-razor/internal/idhash"
)

// ErrBuyFailed is reported when a cycle stops after an unsuccessful buy.
var ErrBuyFailed = errors.New("buy failed, sell skipped")

// Executor runs one trade leg to completion.
type Executor interface {
	Execute(ctx context.Context, req domain.TradeRequest, policy executor.Policy) *domain.Fill
}

// RequestBuilder builds trade requests.
type RequestBuilder interface {
	Build(direction domain.Direction, mint string, amount *decimal.Decimal, endpoint string) (domain.TradeRequest, error)
}

// EndpointSource reports the current RPC endpoint.
type EndpointSource interface {
	Current() string
}

// Orchestrator sequences the buy and sell legs of a cycle.
// No delay is inserted between legs.
type Orchestrator struct {
	builder   RequestBuilder
	executor  Executor
	endpoints EndpointSource
	policy    executor.Policy
	sessionID string
	logger    *slog.Logger

	seq int64 // legs built so far, feeds trade ids
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	Builder   RequestBuilder
	Executor  Executor
	Endpoints EndpointSource

	// Policy for both legs; defaults to executor.DefaultPolicy().
	Policy *executor.Policy

	SessionID string
	Logger    *slog.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	policy := executor.DefaultPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		builder:   opts.Builder,
		executor:  opts.Executor,
		endpoints: opts.Endpoints,
		policy:    policy,
		sessionID: opts.SessionID,
		logger:    logger.With(slog.String("component", "orchestrator")),
	}
}

// CycleResult describes one cycle. A leg that was attempted but failed has
// its Attempted flag set and a nil fill.
type CycleResult struct {
	BuyAttempted  bool
	Buy           *domain.Fill
	SellAttempted bool
	Sell          *domain.Fill

	// Err is set when the cycle stopped before completing both legs.
	Err error
}

// Success reports whether both legs succeeded.
func (r CycleResult) Success() bool {
	return r.Buy != nil && r.Sell != nil
}

// RunCycle buys mint and, only if the buy succeeded, sells it.
// The sell uses the buy's received amount when the API reported one,
// and the entire held balance otherwise.
//
// Canceling ctx stops buy retries. Once a buy has filled, the sell runs
// detached from ctx so the bought tokens are not left held.
func (o *Orchestrator) RunCycle(ctx context.Context, mint string) CycleResult {
	var result CycleResult

	o.logger.Info("starting trade cycle", slog.String("mint", mint))

	buyReq, err := o.build(domain.DirectionBuy, mint, nil)
	if err != nil {
		o.logger.Error("build buy request", slog.String("mint", mint), slog.Any("error", err))
		result.Err = err
		return result
	}

	result.BuyAttempted = true
	result.Buy = o.executor.Execute(ctx, buyReq, o.policy)
	if result.Buy == nil {
		o.logger.Error("buy operation failed, skipping sell", slog.String("mint", buyReq.Mint))
		result.Err = ErrBuyFailed
		return result
	}

	var amount *decimal.Decimal
	if hint := result.Buy.ReceivedAmount; hint != nil && hint.IsPositive() {
		amount = hint
	}

	sellReq, err := o.build(domain.DirectionSell, buyReq.Mint, amount)
	if err != nil {
		o.logger.Error("build sell request", slog.String("mint", buyReq.Mint), slog.Any("error", err))
		result.Err = err
		return result
	}

	if ctx.Err() != nil {
		o.logger.Warn("interrupted after buy, selling before stop", slog.String("mint", buyReq.Mint))
	}
	result.SellAttempted = true
	result.Sell = o.executor.Execute(context.WithoutCancel(ctx), sellReq, o.policy)
	if result.Sell == nil {
		o.logger.Error("sell operation failed", slog.String("mint", sellReq.Mint))
		return result
	}

	o.logger.Info("completed trade cycle",
		slog.String("mint", sellReq.Mint),
		slog.String("buy_signature", result.Buy.Signature),
		slog.String("sell_signature", result.Sell.Signature),
		slog.String("sell_amount", sellReq.Amount.String()),
	)
	return result
}

func (o *Orchestrator) build(direction domain.Direction, mint string, amount *decimal.Decimal) (domain.TradeRequest, error) {
	req, err := o.builder.Build(direction, mint, amount, o.endpoints.Current())
	if err != nil {
		return domain.TradeRequest{}, err
	}
	o.seq++
	req.ID = idhash.ComputeTradeID(o.sessionID, direction, req.Mint, o.seq)
	return req, nil
}
