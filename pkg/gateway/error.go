package gateway

import "fmt"

// well-known gateway error codes
const (
	CodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	CodeInvalidNumber      = "INVALID_NUMBER"
	CodeLimitExceeded      = "LIMIT_EXCEEDED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeTimeout            = "TIMEOUT"
	CodeTransactionExpired = "TRANSACTION_EXPIRED"
)

// Error is a business or service error reported by the gateway
//
// It carries enough information (code, message, HTTP status) for the
// status classifier to categorize the failure. Transport-level errors
// are returned as-is by the HTTP client and never wrapped in Error.
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("gateway error (HTTP %d): %s", e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("gateway error %s: %s", e.Code, e.Message)
}
