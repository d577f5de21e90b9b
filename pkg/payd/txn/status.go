package txn

import (
	"database/sql/driver"
	"fmt"
)

// Status is a transaction status as reported by the invoice-payment gateway
type Status string

// Scan implements the Scanner interface for sql
func (s *Status) Scan(v interface{}) error {
	switch src := v.(type) {
	case []byte:
		*s = Status(string(src))
		return nil
	case nil:
		*s = StatusNone
		return nil
	}
	str, ok := v.(string)
	if !ok {
		return fmt.Errorf("cannot scan %T into %T", v, s)
	}
	*s = Status(str)
	return nil
}

// Value implements the Valuer interface for sql
func (s Status) Value() (driver.Value, error) {
	return driver.Value(s.String()), nil
}

func (s Status) String() string {
	return string(s)
}

const (
	StatusNone       Status = "uninitialized"
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPaid       Status = "paid"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRejected   Status = "rejected"
	StatusExpired    Status = "expired"
	StatusCancelled  Status = "cancelled"
)
