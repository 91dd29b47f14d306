package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-razor/internal/domain"
	"solana-razor/internal/storage"
)

// TradeRecordStore implements storage.TradeRecordStore using PostgreSQL.
type TradeRecordStore struct {
	pool *Pool
}

// NewTradeRecordStore creates a new TradeRecordStore.
func NewTradeRecordStore(pool *Pool) *TradeRecordStore {
	return &TradeRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

const tradeRecordColumns = `
	trade_id, session_id, direction, mint, amount,
	endpoint, signature, success, attempts, reason,
	started_at, finished_at
`

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeRecordStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trade_records (` + tradeRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.pool.Exec(ctx, query,
		t.TradeID, t.SessionID, string(t.Direction), t.Mint, t.Amount,
		t.Endpoint, t.Signature, t.Success, t.Attempts, t.Reason,
		t.StartedAt, t.FinishedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade record: %w", err)
	}
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeRecordColumns + `
		FROM trade_records
		WHERE trade_id = $1
	`

	t, err := scanTradeRecord(s.pool.QueryRow(ctx, query, tradeID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade record by id: %w", err)
	}
	return t, nil
}

// GetBySession retrieves all trades of a session, ordered by started_at ASC.
func (s *TradeRecordStore) GetBySession(ctx context.Context, sessionID string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeRecordColumns + `
		FROM trade_records
		WHERE session_id = $1
		ORDER BY started_at ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get trade records by session: %w", err)
	}
	defer rows.Close()

	var trades []*domain.TradeRecord
	for rows.Next() {
		t, err := scanTradeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade record row: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade record rows: %w", err)
	}

	return trades, nil
}

// scanTradeRecord scans a single row into a TradeRecord.
func scanTradeRecord(row pgx.Row) (*domain.TradeRecord, error) {
	var (
		t         domain.TradeRecord
		direction string
	)

	err := row.Scan(
		&t.TradeID, &t.SessionID, &direction, &t.Mint, &t.Amount,
		&t.Endpoint, &t.Signature, &t.Success, &t.Attempts, &t.Reason,
		&t.StartedAt, &t.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Direction = domain.Direction(direction)
	return &t, nil
}
