package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/netrisk/internal/domain/model"
	"github.com/okian/netrisk/pkg/metrics"
)

// MemoryLog keeps the audit log in process memory. Appends are serialized
// by a write lock; reads share a read lock.
type MemoryLog struct {
	mu      sync.RWMutex
	records []model.AuditRecord
	byID    map[string][]int
	closed  bool
}

// NewMemoryLog creates an empty log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{byID: make(map[string][]int)}
}

// Append stores a copy of rec.
func (m *MemoryLog) Append(_ context.Context, rec model.AuditRecord) (model.AuditRecord, error) {
	if err := validate(rec); err != nil {
		return rec, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return rec, ErrClosed
	}
	m.add(rec)
	metrics.UpdateAuditRecords(len(m.records))
	return clone(m.records[len(m.records)-1]), nil
}

// add appends without locking; callers hold the write lock.
func (m *MemoryLog) add(rec model.AuditRecord) {
	rec.Sequence = int64(len(m.records) + 1)
	rec = clone(rec)
	m.records = append(m.records, rec)
	id := rec.Transaction.Identifier
	m.byID[id] = append(m.byID[id], len(m.records)-1)
}

// History returns records for identifier, newest first.
func (m *MemoryLog) History(_ context.Context, identifier string, q Query) ([]model.AuditRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordAuditQueryLatency(float64(time.Since(start).Microseconds()) / 1000) }()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	idx := m.byID[identifier]
	limit := q.limit()
	out := make([]model.AuditRecord, 0, min(limit, len(idx)))
	for i := len(idx) - 1; i >= 0 && len(out) < limit; i-- {
		r := m.records[idx[i]]
		if q.matches(r.CreatedAt) {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

// Scan visits records in append order.
func (m *MemoryLog) Scan(ctx context.Context, fn func(model.AuditRecord) bool) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	for _, r := range m.records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(clone(r)) {
			return nil
		}
	}
	return nil
}

// Count returns the number of records.
func (m *MemoryLog) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// Close rejects further use.
func (m *MemoryLog) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func validate(rec model.AuditRecord) error {
	if rec.ID == "" || rec.Transaction.Identifier == "" || rec.CreatedAt.IsZero() {
		return ErrInvalidRecord
	}
	return nil
}

// clone detaches the slices of rec from the caller.
// clone copies the slices of rec so stored records never alias caller memory.
func clone(rec model.AuditRecord) model.AuditRecord {
	rec.Breakdown.TriggeredRules = append([]model.TriggeredRule(nil), rec.Breakdown.TriggeredRules...)
	rec.Explanation.Factors = append([]string(nil), rec.Explanation.Factors...)
	rec.Explanation.Rules = append([]model.ExplainedRule(nil), rec.Explanation.Rules...)
	rec.Explanation.Anomalies = append([]model.Anomaly(nil), rec.Explanation.Anomalies...)
	return rec
}
