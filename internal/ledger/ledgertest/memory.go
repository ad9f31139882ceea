// Package ledgertest provides an in-memory Ledger for tests.
package ledgertest

import (
	"context"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/ledger"
)

// Memory keeps records in a slice. Set Err to make every call fail.
type Memory struct {
	mu      sync.Mutex
	records []ledger.Record
	Err     error
}

func (m *Memory) Append(_ context.Context, identity, sessionLabel string) (ledger.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return ledger.Record{}, m.Err
	}

	rec := ledger.Record{
		ID:        int64(len(m.records) + 1),
		Email:     identity,
		ClassName: sessionLabel,
		Timestamp: time.Now().UTC(),
	}
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *Memory) ListAll(context.Context) ([]ledger.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]ledger.Record{}, m.records...), nil
}

func (m *Memory) Close() error {
	return nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
