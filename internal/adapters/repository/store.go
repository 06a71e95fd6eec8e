// Package repository holds the append-only audit log of scored
// transactions. Appends are atomic: a reader sees a record completely or
// not at all.
package repository

import (
	"context"
	"time"

	"github.com/okian/netrisk/internal/domain/model"
)

// Query limits.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Query filters a history lookup. Zero bounds are open.
type Query struct {
	From  time.Time
	To    time.Time
	Limit int
}

func (q Query) limit() int {
	switch {
	case q.Limit <= 0:
		return DefaultLimit
	case q.Limit > MaxLimit:
		return MaxLimit
	default:
		return q.Limit
	}
}

func (q Query) matches(t time.Time) bool {
	if !q.From.IsZero() && t.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && t.After(q.To) {
		return false
	}
	return true
}

// Store is the audit log.
type Store interface {
	// Append stores rec and returns it with its sequence number assigned.
	Append(ctx context.Context, rec model.AuditRecord) (model.AuditRecord, error)

	// History returns records for identifier, newest first.
	History(ctx context.Context, identifier string, q Query) ([]model.AuditRecord, error)

	// Scan visits every record in append order until fn returns false.
	Scan(ctx context.Context, fn func(model.AuditRecord) bool) error

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)

	Close() error
}
