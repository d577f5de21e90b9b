// Package gateway is the client for the external invoice-payment gateway.
//
// The gateway holds the authoritative, eventually-consistent state of a
// mobile-money charge. payd only ever initiates a transaction and checks
// on it; settlement happens on the provider side.
package gateway

import (
	"context"
	"time"

	"github.com/sahelpay/payd/pkg/payd/txn"
)

// InitiateRequest describes a new charge for an invoice
//
// The phone number must already be normalized. Initiate is not
// idempotent; the caller enforces single-flight per invoice.
type InitiateRequest struct {
	InvoiceID   string
	Method      txn.Method
	PhoneNumber string
}

// InitiateResult is the gateway response for a created transaction
type InitiateResult struct {
	TransactionID string
	PaymentURL    string
	PaymentCode   string
	Instructions  string
	// zero when the gateway issued no expiry
	ExpiresAt time.Time
}

// CheckResult carries the gateway-reported status of a transaction
type CheckResult struct {
	Status        txn.Status
	InvoiceStatus string
}

// Client is the invoice-payment gateway API
type Client interface {
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	Check(ctx context.Context, invoiceID, transactionID string) (*CheckResult, error)
}
