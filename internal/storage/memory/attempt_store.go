package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"solana-razor/internal/domain"
	"solana-razor/internal/storage"
)

// AttemptStore is an in-memory implementation of storage.AttemptStore.
type AttemptStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AttemptRecord // keyed by trade_id|attempt
}

// NewAttemptStore creates a new in-memory attempt store.
func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		data: make(map[string]*domain.AttemptRecord),
	}
}

func attemptKey(a *domain.AttemptRecord) string {
	return fmt.Sprintf("%s|%d", a.TradeID, a.Attempt)
}

// Insert adds one attempt. Returns ErrDuplicateKey if (trade_id, attempt) exists.
func (s *AttemptStore) Insert(_ context.Context, a *domain.AttemptRecord) error {
	if a == nil || a.TradeID == "" || a.Attempt < 1 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := attemptKey(a)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *a
	s.data[key] = &copy
	return nil
}

// InsertBulk adds multiple attempts atomically. Fails entire batch on any duplicate.
func (s *AttemptStore) InsertBulk(_ context.Context, attempts []*domain.AttemptRecord) error {
	if len(attempts) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(attempts))
	for _, a := range attempts {
		if a == nil || a.TradeID == "" || a.Attempt < 1 {
			return storage.ErrInvalidInput
		}
		key := attemptKey(a)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, a := range attempts {
		copy := *a
		s.data[attemptKey(a)] = &copy
	}

	return nil
}

// GetByTradeID retrieves all attempts of a trade, ordered by attempt ASC.
func (s *AttemptStore) GetByTradeID(_ context.Context, tradeID string) ([]*domain.AttemptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AttemptRecord
	for _, a := range s.data {
		if a.TradeID == tradeID {
			copy := *a
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Attempt < result[j].Attempt
	})

	return result, nil
}

var _ storage.AttemptStore = (*AttemptStore)(nil)
