package txn

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory PendingStore
//
// It serves tests and single-process setups where durability across
// restarts is not required.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]PendingTransaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]PendingTransaction),
	}
}

func (s *MemoryStore) Save(_ context.Context, p *PendingTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[RecordKey(p.InvoiceID)] = *p
	return nil
}

func (s *MemoryStore) Load(_ context.Context, invoiceID string) (*PendingTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[RecordKey(invoiceID)]
	if !ok {
		return nil, ErrNoPending
	}
	return &rec, nil
}

func (s *MemoryStore) Clear(_ context.Context, invoiceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, RecordKey(invoiceID))
	return nil
}
