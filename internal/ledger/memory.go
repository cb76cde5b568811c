package ledger

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*TradeRecord // keyed by trade_id
}

// NewMemoryStore creates a new in-memory trade ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]*TradeRecord),
	}
}

// Append adds a trade. Returns ErrDuplicateKey if trade_id exists.
func (s *MemoryStore) Append(_ context.Context, t *TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.TradeID]; exists {
		return ErrDuplicateKey
	}

	copy := *t
	s.data[t.TradeID] = &copy
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *MemoryStore) GetByID(_ context.Context, tradeID string) (*TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[tradeID]
	if !exists {
		return nil, ErrNotFound
	}

	copy := *t
	return &copy, nil
}

// GetByWallet retrieves all trades for a wallet, ordered by executed_at ASC.
func (s *MemoryStore) GetByWallet(_ context.Context, walletID int64) ([]*TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*TradeRecord
	for _, t := range s.data {
		if t.WalletID == walletID {
			copy := *t
			result = append(result, &copy)
		}
	}

	sortByTime(result)
	return result, nil
}

// GetByToken retrieves all trades for a token, ordered by executed_at ASC.
func (s *MemoryStore) GetByToken(_ context.Context, tokenAddress string) ([]*TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*TradeRecord
	for _, t := range s.data {
		if t.TokenAddress == tokenAddress {
			copy := *t
			result = append(result, &copy)
		}
	}

	sortByTime(result)
	return result, nil
}

func sortByTime(records []*TradeRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].ExecutedAt.Equal(records[j].ExecutedAt) {
			return records[i].TradeID < records[j].TradeID
		}
		return records[i].ExecutedAt.Before(records[j].ExecutedAt)
	})
}

var _ Store = (*MemoryStore)(nil)
