// Package storage defines the append-only trade journal.
package storage

import (
	"context"

	"solana-razor/internal/domain"
)

// TradeRecordStore provides access to trade_records storage.
type TradeRecordStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetBySession retrieves all trades of a session, ordered by started_at ASC.
	GetBySession(ctx context.Context, sessionID string) ([]*domain.TradeRecord, error)
}

// AttemptStore provides access to trade_attempts storage.
type AttemptStore interface {
	// Insert adds one attempt. Returns ErrDuplicateKey if (trade_id, attempt) exists.
	Insert(ctx context.Context, a *domain.AttemptRecord) error

	// InsertBulk adds multiple attempts. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, attempts []*domain.AttemptRecord) error

	// GetByTradeID retrieves all attempts of a trade, ordered by attempt ASC.
	GetByTradeID(ctx context.Context, tradeID string) ([]*domain.AttemptRecord, error)
}
