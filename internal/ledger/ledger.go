// Package ledger persists attendance records: one append-only row per
// accepted authentication.
package ledger

import (
	"context"
	"time"
)

// Record is one attendance entry. Records are never updated or deleted.
type Record struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	ClassName string    `json:"class_name"`
	Timestamp time.Time `json:"timestamp"`
}

// Ledger is an append-only attendance store.
type Ledger interface {
	// Append stores a record for identity and session, stamping it with the current time.
	Append(ctx context.Context, identity, sessionLabel string) (Record, error)
	// ListAll returns every record in insertion order.
	ListAll(ctx context.Context) ([]Record, error)
	Close() error
}
