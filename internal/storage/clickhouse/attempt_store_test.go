package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-razor/internal/domain"
	"solana-razor/internal/storage"
)

func testAttempt(tradeID string, n int, outcome domain.OutcomeKind, rotated bool) *domain.AttemptRecord {
	return &domain.AttemptRecord{
		TradeID:   tradeID,
		Attempt:   n,
		Direction: domain.DirectionBuy,
		Mint:      "MintAddr111",
		Endpoint:  "https://api.mainnet-beta.solana.com",
		Outcome:   outcome.String(),
		Reason:    "rate limited (429)",
		Rotated:   rotated,
		LatencyMs: 120,
		Timestamp: 1700000000000 + int64(n),
	}
}

func TestAttemptStore_InsertAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAttemptStore(conn)

	first := testAttempt("trade-1", 1, domain.OutcomeRateLimited, true)
	second := testAttempt("trade-1", 2, domain.OutcomeSuccess, false)
	second.Reason = ""

	require.NoError(t, store.Insert(ctx, second))
	require.NoError(t, store.Insert(ctx, first))

	got, err := store.GetByTradeID(ctx, "trade-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0])
	assert.Equal(t, second, got[1])
}

func TestAttemptStore_Duplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAttemptStore(conn)

	a := testAttempt("trade-dup", 1, domain.OutcomeTransportError, true)
	require.NoError(t, store.Insert(ctx, a))
	assert.ErrorIs(t, store.Insert(ctx, a), storage.ErrDuplicateKey)
}

func TestAttemptStore_InsertBulk(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAttemptStore(conn)

	batch := []*domain.AttemptRecord{
		testAttempt("trade-bulk", 1, domain.OutcomeRateLimited, true),
		testAttempt("trade-bulk", 2, domain.OutcomeRateLimited, true),
		testAttempt("trade-bulk", 3, domain.OutcomeRateLimited, false),
	}
	require.NoError(t, store.InsertBulk(ctx, batch))

	got, err := store.GetByTradeID(ctx, "trade-bulk")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, a := range got {
		assert.Equal(t, i+1, a.Attempt)
	}

	err = store.InsertBulk(ctx, []*domain.AttemptRecord{testAttempt("trade-bulk", 3, domain.OutcomeSuccess, false)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestAttemptStore_InvalidInput(t *testing.T) {
	// Validation runs before any query, so no container is needed.
	store := NewAttemptStore(nil)
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.AttemptRecord{TradeID: "x"}), storage.ErrInvalidInput)

	intra := []*domain.AttemptRecord{
		testAttempt("t", 1, domain.OutcomeSuccess, false),
		testAttempt("t", 1, domain.OutcomeSuccess, false),
	}
	assert.ErrorIs(t, store.InsertBulk(ctx, intra), storage.ErrDuplicateKey)
	assert.NoError(t, store.InsertBulk(ctx, nil))
}
