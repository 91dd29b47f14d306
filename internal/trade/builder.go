// Package trade builds trade API orders from configuration and call-site inputs.
package trade

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"solana-razor/internal/domain"
)

// Builder errors.
var (
	// ErrInvalidInput is returned when a request cannot be built from its inputs.
	ErrInvalidInput = errors.New("invalid trade input")

	// ErrInvalidMint is returned when a token mint is not a base58 32-byte key.
	ErrInvalidMint = fmt.Errorf("%w: mint is not a base58 32-byte address", ErrInvalidInput)
)

// Params are the per-run trade parameters. They are fixed for the life of a Builder.
type Params struct {
	BuyAmountSOL    decimal.Decimal // SOL spent per buy when no amount is given
	SlippagePercent decimal.Decimal
	PriorityFee     decimal.Decimal // SOL
	SkipPreflight   bool
	// SkipMintCheck disables base58 validation of mints, leaving only the
	// trimmed non-empty check.
	SkipMintCheck bool
}

// Builder constructs trade requests.
type Builder struct {
	params Params
}

// NewBuilder creates a builder for params.
func NewBuilder(params Params) *Builder {
	return &Builder{params: params}
}

// Params returns the builder parameters.
func (b *Builder) Params() Params {
	return b.params
}

// Build returns a new request for direction on mint, routed through endpoint.
//
// Buys are SOL-denominated and default to the configured buy amount.
// Sells are token-denominated and default to the entire held balance.
func (b *Builder) Build(direction domain.Direction, mint string, amount *decimal.Decimal, endpoint string) (domain.TradeRequest, error) {
	mint, err := NormalizeMint(mint, !b.params.SkipMintCheck)
	if err != nil {
		return domain.TradeRequest{}, err
	}
	if amount != nil && !amount.IsPositive() {
		return domain.TradeRequest{}, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidInput, amount.String())
	}

	req := domain.TradeRequest{
		Direction:       direction,
		Mint:            mint,
		SlippagePercent: b.params.SlippagePercent,
		PriorityFee:     b.params.PriorityFee,
		Endpoint:        endpoint,
		SkipPreflight:   b.params.SkipPreflight,
	}

	switch direction {
	case domain.DirectionBuy:
		req.DenominatedInSOL = true
		if amount != nil {
			req.Amount = domain.FixedAmount(*amount)
		} else {
			req.Amount = domain.FixedAmount(b.params.BuyAmountSOL)
		}
	case domain.DirectionSell:
		req.DenominatedInSOL = false
		if amount != nil {
			req.Amount = domain.FixedAmount(*amount)
		} else {
			req.Amount = domain.EntireBalance()
		}
	default:
		return domain.TradeRequest{}, fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, direction)
	}

	return req, nil
}

// NormalizeMint trims mint and checks it is non-empty.
// With strict set it must also decode as a base58 32-byte key.
func NormalizeMint(mint string, strict bool) (string, error) {
	mint = strings.TrimSpace(mint)
	if mint == "" {
		return "", fmt.Errorf("%w: empty token mint", ErrInvalidInput)
	}
	if strict {
		if err := ValidateMint(mint); err != nil {
			return "", err
		}
	}
	return mint, nil
}
