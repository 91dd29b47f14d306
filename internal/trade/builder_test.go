package trade

import (
	"bytes"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-razor/internal/domain"
)

func testMint() string {
	return base58.Encode(bytes.Repeat([]byte{7}, 32))
}

func testParams() Params {
	return Params{
		BuyAmountSOL:    decimal.RequireFromString("0.015"),
		SlippagePercent: decimal.NewFromInt(15),
		PriorityFee:     decimal.RequireFromString("0.001"),
		SkipPreflight:   true,
	}
}

func TestBuilder_BuyDefaults(t *testing.T) {
	b := NewBuilder(testParams())
	mint := testMint()

	req, err := b.Build(domain.DirectionBuy, "  "+mint+"\n", nil, "https://rpc-a")
	require.NoError(t, err)

	assert.Equal(t, domain.DirectionBuy, req.Direction)
	assert.Equal(t, mint, req.Mint)
	assert.True(t, req.DenominatedInSOL)
	assert.Equal(t, "0.015", req.Amount.String())
	assert.Equal(t, "15", req.SlippagePercent.String())
	assert.Equal(t, "0.001", req.PriorityFee.String())
	assert.Equal(t, "https://rpc-a", req.Endpoint)
	assert.True(t, req.SkipPreflight)
}

func TestBuilder_BuyExplicitAmount(t *testing.T) {
	b := NewBuilder(testParams())
	amount := decimal.RequireFromString("0.25")

	req, err := b.Build(domain.DirectionBuy, testMint(), &amount, "rpc")
	require.NoError(t, err)
	assert.Equal(t, "0.25", req.Amount.String())
	assert.True(t, req.DenominatedInSOL)
}

func TestBuilder_SellDefaultsToEntireBalance(t *testing.T) {
	b := NewBuilder(testParams())

	req, err := b.Build(domain.DirectionSell, testMint(), nil, "rpc")
	require.NoError(t, err)

	assert.False(t, req.DenominatedInSOL)
	assert.True(t, req.Amount.EntireBalance)
	assert.Equal(t, "100%", req.Amount.String())
}

func TestBuilder_SellExplicitAmount(t *testing.T) {
	b := NewBuilder(testParams())
	amount := decimal.RequireFromString("123456.789")

	req, err := b.Build(domain.DirectionSell, testMint(), &amount, "rpc")
	require.NoError(t, err)

	assert.False(t, req.DenominatedInSOL)
	assert.False(t, req.Amount.EntireBalance)
	assert.Equal(t, "123456.789", req.Amount.String())
}

func TestBuilder_EmptyMint(t *testing.T) {
	b := NewBuilder(testParams())

	for _, mint := range []string{"", "   ", "\t\n"} {
		_, err := b.Build(domain.DirectionBuy, mint, nil, "rpc")
		assert.ErrorIs(t, err, ErrInvalidInput, "mint %q", mint)
	}
}

func TestBuilder_InvalidMint(t *testing.T) {
	b := NewBuilder(testParams())

	// '0' is outside the base58 alphabet.
	_, err := b.Build(domain.DirectionBuy, "0OIl", nil, "rpc")
	assert.ErrorIs(t, err, ErrInvalidMint)
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Valid base58 but too short for a public key.
	_, err = b.Build(domain.DirectionBuy, base58.Encode([]byte{1, 2, 3}), nil, "rpc")
	assert.ErrorIs(t, err, ErrInvalidMint)
}

func TestBuilder_SkipMintCheck(t *testing.T) {
	params := testParams()
	params.SkipMintCheck = true
	b := NewBuilder(params)

	req, err := b.Build(domain.DirectionSell, " not-a-mint ", nil, "rpc")
	require.NoError(t, err)
	assert.Equal(t, "not-a-mint", req.Mint)
}

func TestBuilder_NonPositiveAmount(t *testing.T) {
	b := NewBuilder(testParams())
	zero := decimal.Zero

	_, err := b.Build(domain.DirectionSell, testMint(), &zero, "rpc")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBuilder_UnknownDirection(t *testing.T) {
	b := NewBuilder(testParams())

	_, err := b.Build(domain.Direction("hold"), testMint(), nil, "rpc")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateWallet(t *testing.T) {
	// Compressed ed25519 base point.
	basePoint := append([]byte{0x58}, bytes.Repeat([]byte{0x66}, 31)...)
	require.NoError(t, ValidateWallet(base58.Encode(basePoint)))

	// y = 2 has no matching x on the curve.
	offCurve := append([]byte{0x02}, make([]byte, 31)...)
	assert.ErrorIs(t, ValidateWallet(base58.Encode(offCurve)), ErrInvalidInput)

	assert.ErrorIs(t, ValidateWallet("short"), ErrInvalidInput)
}
