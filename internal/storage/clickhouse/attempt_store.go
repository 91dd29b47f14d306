package clickhouse

import (
	"context"
	"fmt"

	"solana-razor/internal/domain"
	"solana-razor/internal/storage"
)

// AttemptStore implements storage.AttemptStore using ClickHouse.
type AttemptStore struct {
	conn *Conn
}

// NewAttemptStore creates a new AttemptStore.
func NewAttemptStore(conn *Conn) *AttemptStore {
	return &AttemptStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AttemptStore = (*AttemptStore)(nil)

const attemptColumns = `
	trade_id, attempt, direction, mint, endpoint,
	outcome, reason, rotated, latency_ms, timestamp_ms
`

// Insert adds one attempt. Returns ErrDuplicateKey if (trade_id, attempt) exists.
func (s *AttemptStore) Insert(ctx context.Context, a *domain.AttemptRecord) error {
	if a == nil || a.TradeID == "" || a.Attempt < 1 {
		return storage.ErrInvalidInput
	}

	// MergeTree does not enforce uniqueness.
	exists, err := s.exists(ctx, a.TradeID, a.Attempt)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `INSERT INTO trade_attempts (` + attemptColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	err = s.conn.Exec(ctx, query,
		a.TradeID, uint32(a.Attempt), string(a.Direction), a.Mint, a.Endpoint,
		a.Outcome, a.Reason, a.Rotated, a.LatencyMs, a.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// InsertBulk adds multiple attempts in one batch. Fails entire batch on any duplicate.
func (s *AttemptStore) InsertBulk(ctx context.Context, attempts []*domain.AttemptRecord) error {
	if len(attempts) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(attempts))
	for _, a := range attempts {
		if a == nil || a.TradeID == "" || a.Attempt < 1 {
			return storage.ErrInvalidInput
		}
		key := fmt.Sprintf("%s|%d", a.TradeID, a.Attempt)
		if _, exists := seen[key]; exists {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
	}

	for _, a := range attempts {
		exists, err := s.exists(ctx, a.TradeID, a.Attempt)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO trade_attempts (`+attemptColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, a := range attempts {
		err = batch.Append(
			a.TradeID, uint32(a.Attempt), string(a.Direction), a.Mint, a.Endpoint,
			a.Outcome, a.Reason, a.Rotated, a.LatencyMs, a.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTradeID retrieves all attempts of a trade, ordered by attempt ASC.
func (s *AttemptStore) GetByTradeID(ctx context.Context, tradeID string) ([]*domain.AttemptRecord, error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM trade_attempts
		WHERE trade_id = ?
		ORDER BY attempt ASC
	`

	rows, err := s.conn.Query(ctx, query, tradeID)
	if err != nil {
		return nil, fmt.Errorf("query by trade id: %w", err)
	}
	defer rows.Close()

	var attempts []*domain.AttemptRecord
	for rows.Next() {
		var (
			a         domain.AttemptRecord
			attempt   uint32
			direction string
		)
		err := rows.Scan(
			&a.TradeID, &attempt, &direction, &a.Mint, &a.Endpoint,
			&a.Outcome, &a.Reason, &a.Rotated, &a.LatencyMs, &a.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan attempt row: %w", err)
		}
		a.Attempt = int(attempt)
		a.Direction = domain.Direction(direction)
		attempts = append(attempts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempt rows: %w", err)
	}

	return attempts, nil
}

func (s *AttemptStore) exists(ctx context.Context, tradeID string, attempt int) (bool, error) {
	query := `SELECT count(*) FROM trade_attempts WHERE trade_id = ? AND attempt = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, tradeID, uint32(attempt)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
