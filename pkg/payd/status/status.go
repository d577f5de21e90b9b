// Package status maps raw gateway statuses and error payloads onto the
// closed set of domain outcomes driving the payment lifecycle.
//
// This is the single translation point. Upstream status vocabulary is
// inconsistent between providers ("failed" vs "rejected" vs "cancelled");
// none of that inconsistency may leak past this package.
package status

import (
	"errors"
	"strings"

	"github.com/sahelpay/payd/pkg/gateway"
	"github.com/sahelpay/payd/pkg/payd/txn"
)

// Outcome is a classified transaction outcome
type Outcome int

const (
	// OutcomeAwaiting keeps the poller alive; everything else is terminal
	OutcomeAwaiting Outcome = iota
	OutcomeSucceeded
	// OutcomeFailedBusiness requires new input from the user
	OutcomeFailedBusiness
	// OutcomeFailedTransient allows a retry with the same input
	OutcomeFailedTransient
	OutcomeExpired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAwaiting:
		return "awaiting-confirmation"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailedBusiness:
		return "failed-business"
	case OutcomeFailedTransient:
		return "failed-transient"
	case OutcomeExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Terminal reports whether the outcome ends the current payment attempt
func (o Outcome) Terminal() bool {
	return o != OutcomeAwaiting
}

// Message returns the single human-readable message for the outcome
func (o Outcome) Message() string {
	switch o {
	case OutcomeSucceeded:
		return "payment confirmed"
	case OutcomeFailedBusiness:
		return "payment was declined, please verify the number and balance and try again"
	case OutcomeFailedTransient:
		return "payment service is temporarily unavailable, please try again"
	case OutcomeExpired:
		return "payment request expired before confirmation"
	default:
		return "waiting for payment confirmation"
	}
}

// ClassifyStatus maps a gateway transaction status onto an outcome
//
// "rejected" is treated as equivalent to "failed", and a gateway-side
// "cancelled" as a business decline of the attempt. An unknown status is
// treated as transient so a new gateway vocabulary entry cannot wedge a
// payment in waiting forever.
func ClassifyStatus(s txn.Status) Outcome {
	switch s {
	case txn.StatusPaid, txn.StatusCompleted:
		return OutcomeSucceeded
	case txn.StatusPending, txn.StatusProcessing:
		return OutcomeAwaiting
	case txn.StatusFailed, txn.StatusRejected, txn.StatusCancelled:
		return OutcomeFailedBusiness
	case txn.StatusExpired:
		return OutcomeExpired
	default:
		return OutcomeFailedTransient
	}
}

// message substrings marking business declines from gateways which do
// not set a machine-readable code
var businessErrorHints = []string{
	"insufficient",
	"solde insuffisant",
	"invalid number",
	"unknown subscriber",
	"limit exceeded",
	"plafond",
}

// ClassifyError maps an initiate or check error onto an outcome
//
// Typed gateway errors are classified by code first, then by message
// substring. Anything else (transport failures, timeouts, cancelled
// contexts) classifies as transient.
func ClassifyError(err error) Outcome {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		switch gwErr.Code {
		case gateway.CodeInsufficientFunds, gateway.CodeInvalidNumber, gateway.CodeLimitExceeded:
			return OutcomeFailedBusiness
		case gateway.CodeTransactionExpired:
			return OutcomeExpired
		case gateway.CodeServiceUnavailable, gateway.CodeTimeout:
			return OutcomeFailedTransient
		}
		msg := strings.ToLower(gwErr.Message)
		for _, hint := range businessErrorHints {
			if strings.Contains(msg, hint) {
				return OutcomeFailedBusiness
			}
		}
		if gwErr.HTTPStatus >= 400 && gwErr.HTTPStatus < 500 {
			return OutcomeFailedBusiness
		}
		return OutcomeFailedTransient
	}
	return OutcomeFailedTransient
}
