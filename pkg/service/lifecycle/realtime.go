package lifecycle

import (
	"sync"

	"github.com/sahelpay/payd/pkg/payd/txn"
)

// StatusSource is an optional realtime push channel for transaction statuses
//
// Pushed statuses are fed through the same classification and stale-token
// discard pipeline as poll responses. The source only shortens the wait;
// polling remains the authoritative mechanism.
type StatusSource interface {
	// Subscribe delivers statuses for the invoice until the returned
	// cancel func is called
	Subscribe(invoiceID string) (<-chan txn.Status, func())
}

const busBufferSize = 8

// Bus is an in-memory StatusSource
//
// Publishing never blocks; a slow subscriber loses intermediate statuses,
// which is acceptable since polling will observe the final state anyway.
type Bus struct {
	mu   sync.Mutex
	subs map[string][]chan txn.Status
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[string][]chan txn.Status),
	}
}

// Publish delivers a status to all subscribers of the invoice
func (b *Bus) Publish(invoiceID string, st txn.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[invoiceID] {
		select {
		case ch <- st:
		default:
		}
	}
}

func (b *Bus) Subscribe(invoiceID string) (<-chan txn.Status, func()) {
	ch := make(chan txn.Status, busBufferSize)
	b.mu.Lock()
	b.subs[invoiceID] = append(b.subs[invoiceID], ch)
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			subs := b.subs[invoiceID]
			for i, c := range subs {
				if c == ch {
					b.subs[invoiceID] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
			if len(b.subs[invoiceID]) == 0 {
				delete(b.subs, invoiceID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
