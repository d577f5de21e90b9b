package txn

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const createPendingTable = `
CREATE TABLE IF NOT EXISTS pending_transaction (
	record_key VARCHAR(191) NOT NULL PRIMARY KEY,
	record TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)
`

// REPLACE INTO is understood by both MySQL and SQLite
const replacePending = `
REPLACE INTO pending_transaction
(record_key, record, updated_at)
VALUES
(?, ?, ?)
`

const selectPending = `
SELECT record
FROM pending_transaction
WHERE record_key = ?
`

const deletePending = `
DELETE FROM pending_transaction
WHERE record_key = ?
`

// CreatePendingTableDB creates the pending transaction table if it is missing
func CreatePendingTableDB(db *sql.DB) error {
	_, err := db.Exec(createPendingTable)
	return err
}

// SavePendingDB stores the given record, replacing a previous record for
// the same invoice
func SavePendingDB(ctx context.Context, db *sql.DB, p *PendingTransaction) error {
	record, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, replacePending, RecordKey(p.InvoiceID), record, time.Now())
	return err
}

// PendingByInvoiceDB selects the pending transaction record for the given invoice
//
// A missing row maps to ErrNoPending. A row that cannot be decoded is
// treated as no pending transaction; the caller is expected to clear it.
func PendingByInvoiceDB(ctx context.Context, db *sql.DB, invoiceID string) (*PendingTransaction, error) {
	row := db.QueryRowContext(ctx, selectPending, RecordKey(invoiceID))
	var record []byte
	err := row.Scan(&record)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoPending
		}
		return nil, err
	}
	p := &PendingTransaction{}
	if err := json.Unmarshal(record, p); err != nil {
		return nil, errCorruptRecord{err}
	}
	return p, nil
}

// DeletePendingDB removes the pending transaction record for the given invoice
func DeletePendingDB(ctx context.Context, db *sql.DB, invoiceID string) error {
	_, err := db.ExecContext(ctx, deletePending, RecordKey(invoiceID))
	return err
}

type errCorruptRecord struct {
	err error
}

func (e errCorruptRecord) Error() string {
	return "corrupt pending transaction record: " + e.err.Error()
}

// SQLStore is a PendingStore backed by a SQL database (MySQL or SQLite)
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Save(ctx context.Context, p *PendingTransaction) error {
	return SavePendingDB(ctx, s.db, p)
}

// Load returns the record for the invoice
//
// A corrupt stored record is cleared and reported as ErrNoPending so a
// damaged row can never wedge an invoice.
func (s *SQLStore) Load(ctx context.Context, invoiceID string) (*PendingTransaction, error) {
	p, err := PendingByInvoiceDB(ctx, s.db, invoiceID)
	if err != nil {
		if _, corrupt := err.(errCorruptRecord); corrupt {
			if clearErr := DeletePendingDB(ctx, s.db, invoiceID); clearErr != nil {
				return nil, clearErr
			}
			return nil, ErrNoPending
		}
		return nil, err
	}
	return p, nil
}

func (s *SQLStore) Clear(ctx context.Context, invoiceID string) error {
	return DeletePendingDB(ctx, s.db, invoiceID)
}
