// Package liquidation sells held tokens outright: one mint, or every
// non-empty token account of a wallet.
package liquidation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"solana-razor/internal/domain"
	"solana-razor/internal/executor"
	"solana-razor/internal/idhash"
	"solana-razor/internal/observability"
	"solana-razor/internal/solana"
)

// Default pacing and confirmation bounds.
const (
	DefaultPause          = 2 * time.Second
	DefaultConfirmTimeout = 60 * time.Second
)

// ErrConfirmedFailed marks a sell whose transaction landed with an on-chain error.
var ErrConfirmedFailed = errors.New("transaction confirmed with error")

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

// Confirmer waits for a submitted transaction to land.
type Confirmer interface {
	WaitForSignature(ctx context.Context, signature string) (solana.SignatureStatus, error)
}

// RPCFactory returns an RPC client aimed at endpoint.
type RPCFactory func(endpoint string) solana.RPCClient

// Result is the outcome of selling one mint.
type Result struct {
	Mint      string
	Balance   decimal.Decimal // zero when selling a single mint by name
	Fill      *domain.Fill
	Sold      bool
	Confirmed bool // a confirmer reported the transaction landed cleanly
	Err       error
}

// Report summarizes a SellAll run.
type Report struct {
	Wallet      string
	Tokens      int // non-empty token accounts found
	Sold        int
	Failed      int
	Unconfirmed int // sold, but confirmation timed out or was unavailable
	Interrupted bool
	Results     []Result
}

// Liquidator sells tokens with the liquidation retry policy.
type Liquidator struct {
	builder        RequestBuilder
	executor       Executor
	endpoints      EndpointSource
	rpc            RPCFactory
	confirmer      Confirmer
	policy         executor.Policy
	limiter        *rate.Limiter
	confirmTimeout time.Duration
	sessionID      string
	logger         *slog.Logger

	seq int64
}

// Options for creating Liquidator.
type Options struct {
	// Required
	Builder   RequestBuilder
	Executor  Executor
	Endpoints EndpointSource

	// RPC is required by SellAll only.
	RPC RPCFactory

	// Confirmer is optional; without it sells are not confirmed.
	Confirmer Confirmer

	// Policy defaults to executor.LiquidationPolicy().
	Policy *executor.Policy

	// Pause is the minimum spacing between sells in SellAll.
	// Zero selects DefaultPause; negative disables pacing.
	Pause time.Duration

	ConfirmTimeout time.Duration

	SessionID string
	Logger    *slog.Logger
}

// New creates a new Liquidator.
func New(opts Options) *Liquidator {
	policy := executor.LiquidationPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}

	pause := opts.Pause
	if pause == 0 {
		pause = DefaultPause
	}
	limit := rate.Inf
	if pause > 0 {
		limit = rate.Every(pause)
	}

	confirmTimeout := opts.ConfirmTimeout
	if confirmTimeout <= 0 {
		confirmTimeout = DefaultConfirmTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Liquidator{
		builder:        opts.Builder,
		executor:       opts.Executor,
		endpoints:      opts.Endpoints,
		rpc:            opts.RPC,
		confirmer:      opts.Confirmer,
		policy:         policy,
		limiter:        rate.NewLimiter(limit, 1),
		confirmTimeout: confirmTimeout,
		sessionID:      opts.SessionID,
		logger:         logger.With(slog.String("component", "liquidator")),
	}
}

// SellToken sells the entire balance of mint and reports whether it sold.
func (l *Liquidator) SellToken(ctx context.Context, mint string) bool {
	return l.sell(ctx, mint).Sold
}

// SellAll sells every non-empty token account owned by wallet, pacing
// consecutive sells. Enumeration failures are logged and treated as an
// empty wallet. Cancelling ctx stops before the next sell.
func (l *Liquidator) SellAll(ctx context.Context, wallet string) Report {
	report := Report{Wallet: wallet}

	if l.rpc == nil {
		l.logger.Error("no RPC client configured, cannot list tokens")
		return report
	}

	rpcEndpoint := l.endpoints.Current()
	balances, err := l.rpc(rpcEndpoint).GetTokenAccountsByOwner(ctx, wallet)
	if err != nil {
		l.logger.Error("error getting wallet tokens",
			slog.String("wallet", wallet),
			slog.String("endpoint", rpcEndpoint),
			slog.Any("error", err),
		)
		balances = nil
	}

	report.Tokens = len(balances)
	if len(balances) == 0 {
		l.logger.Info("no tokens found in wallet", slog.String("wallet", wallet))
		return report
	}
	l.logger.Info("found tokens to liquidate", slog.Int("count", len(balances)))

	for i, b := range balances {
		if err := l.limiter.Wait(ctx); err != nil {
			l.logger.Warn("liquidation interrupted", slog.Int("remaining", len(balances)-i))
			report.Interrupted = true
			break
		}

		l.logger.Info("selling token",
			slog.Int("index", i+1),
			slog.Int("of", len(balances)),
			slog.String("mint", b.Mint),
			slog.String("balance", b.Amount.String()),
		)

		result := l.sell(context.WithoutCancel(ctx), b.Mint)
		result.Balance = b.Amount
		report.Results = append(report.Results, result)

		if result.Sold {
			report.Sold++
			if l.confirmer != nil && !result.Confirmed {
				report.Unconfirmed++
			}
		} else {
			report.Failed++
		}
	}

	l.logger.Info("liquidation complete",
		slog.Int("sold", report.Sold),
		slog.Int("failed", report.Failed),
		slog.Int("tokens", report.Tokens),
		slog.Bool("interrupted", report.Interrupted),
	)
	return report
}

func (l *Liquidator) sell(ctx context.Context, mint string) Result {
	result := Result{Mint: mint}
	defer func() {
		observability.RecordLiquidation(result.Sold)
	}()

	req, err := l.builder.Build(domain.DirectionSell, mint, nil, l.endpoints.Current())
	if err != nil {
		l.logger.Error("build sell request", slog.String("mint", mint), slog.Any("error", err))
		result.Err = err
		return result
	}
	l.seq++
	req.ID = idhash.ComputeTradeID(l.sessionID, domain.DirectionSell, req.Mint, l.seq)
	result.Mint = req.Mint

	result.Fill = l.executor.Execute(ctx, req, l.policy)
	if result.Fill == nil {
		l.logger.Error("failed to sell token", slog.String("mint", req.Mint))
		return result
	}
	result.Sold = true

	if l.confirmer == nil || result.Fill.Signature == "" {
		return result
	}

	confirmCtx, cancel := context.WithTimeout(ctx, l.confirmTimeout)
	defer cancel()

	status, err := l.confirmer.WaitForSignature(confirmCtx, result.Fill.Signature)
	switch {
	case err != nil:
		l.logger.Warn("sell not confirmed",
			slog.String("mint", req.Mint),
			slog.String("signature", result.Fill.Signature),
			slog.Any("error", err),
		)
	case status.Failed():
		l.logger.Error("sell transaction failed on chain",
			slog.String("mint", req.Mint),
			slog.String("signature", result.Fill.Signature),
			slog.Any("tx_error", status.Err),
		)
		result.Sold = false
		result.Err = ErrConfirmedFailed
	default:
		result.Confirmed = true
		l.logger.Info("sell confirmed",
			slog.String("mint", req.Mint),
			slog.String("signature", result.Fill.Signature),
			slog.Int64("slot", status.Slot),
		)
	}
	return result
}
