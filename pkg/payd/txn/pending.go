package txn

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoPending is returned by PendingStore implementations when no
	// pending transaction exists for the requested invoice
	ErrNoPending = errors.New("no pending transaction")
)

const recordKeyPrefix = "payd:pending:"

// RecordKey returns the namespaced storage key for the given invoice
func RecordKey(invoiceID string) string {
	return recordKeyPrefix + invoiceID
}

// PendingTransaction is the durable record of an in-flight payment
//
// Exactly one record may exist per invoice. It is created after a
// successful initiate call, mutated by the status poller while waiting
// and removed the moment the lifecycle reaches a terminal state.
type PendingTransaction struct {
	TransactionID string    `json:"transactionId"`
	InvoiceID     string    `json:"invoiceId"`
	Method        Method    `json:"method"`
	PhoneNumber   string    `json:"phoneNumber"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
	CheckCount    int       `json:"checkCount"`
	LastCheckAt   time.Time `json:"lastCheckAt,omitempty"`
	PaymentURL    string    `json:"paymentUrl,omitempty"`
	PaymentCode   string    `json:"paymentCode,omitempty"`
	Instructions  string    `json:"instructions,omitempty"`
}

// Expired reports whether the record's lifetime has passed at the given time
//
// ExpiresAt is authoritative for timeout. A record past its expiry must not
// be treated as active even if no poll has fired yet.
func (p *PendingTransaction) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// RegisterCheck records one poll attempt on the transaction
//
// CheckCount only increases while the record exists.
func (p *PendingTransaction) RegisterCheck(at time.Time) {
	p.CheckCount++
	p.LastCheckAt = at
}

// PendingStore is the persistence port for pending transactions
//
// The lifecycle controller for an invoice is the single writer of that
// invoice's record.
type PendingStore interface {
	// Save stores the record, overwriting any previous record for the invoice
	Save(ctx context.Context, p *PendingTransaction) error
	// Load returns the record for the invoice or ErrNoPending
	Load(ctx context.Context, invoiceID string) (*PendingTransaction, error)
	// Clear removes the record for the invoice. Clearing an absent record is not an error
	Clear(ctx context.Context, invoiceID string) error
}
