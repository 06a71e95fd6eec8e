package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/okian/netrisk/internal/domain/model"
	"github.com/okian/netrisk/pkg/json"
	"github.com/okian/netrisk/pkg/logger"
	"github.com/okian/netrisk/pkg/metrics"
)

// Migrations holds the Postgres schema.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations passed to goose.
const MigrationsDir = "migrations"

const uniqueViolation = "23505"

var gooseMu sync.Mutex

// Migrate applies pending schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	return RunMigrations(ctx, db, "up")
}

// RunMigrations runs a goose command against the embedded schema.
func RunMigrations(ctx context.Context, db *sql.DB, command string, args ...string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, MigrationsDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// PostgresLog stores audit records in Postgres. The full record is kept as
// JSONB; identifier and created_at are columns for indexed lookups.
type PostgresLog struct {
	db   *sql.DB
	opts options

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewPostgresLog wraps db. The caller owns db and closes it.
func NewPostgresLog(ctx context.Context, db *sql.DB, opts ...Option) (*PostgresLog, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.migrate {
		if err := Migrate(ctx, db); err != nil {
			return nil, err
		}
	}
	p := &PostgresLog{db: db, opts: o, stop: make(chan struct{})}
	p.wg.Add(1)
	go p.updateMetrics()
	return p, nil
}

func (p *PostgresLog) updateMetrics() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.opts.metricsUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			n, err := p.Count(ctx)
			if err != nil {
				logger.Get().Named("audit").Warn(ctx, "count audit records", logger.Error(err))
				cancel()
				continue
			}
			cancel()
			metrics.UpdateAuditRecords(n)
		}
	}
}

// Append inserts rec in one statement.
func (p *PostgresLog) Append(ctx context.Context, rec model.AuditRecord) (model.AuditRecord, error) {
	if err := validate(rec); err != nil {
		return rec, err
	}
	rec = clone(rec)
	rec.Sequence = 0
	payload, err := json.Marshal(rec)
	if err != nil {
		return rec, fmt.Errorf("encode audit record: %w", err)
	}

	err = p.db.QueryRowContext(ctx,
		`INSERT INTO audit_records (record_id, identifier, decision, final_score, created_at, payload)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING sequence`,
		rec.ID, rec.Transaction.Identifier, string(rec.Breakdown.Decision),
		rec.Breakdown.FinalScore, rec.CreatedAt.UTC(), payload,
	).Scan(&rec.Sequence)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return rec, fmt.Errorf("%w: %s", ErrDuplicateRecord, rec.ID)
		}
		return rec, fmt.Errorf("insert audit record: %w", err)
	}
	return rec, nil
}

// History returns records for identifier, newest first.
func (p *PostgresLog) History(ctx context.Context, identifier string, q Query) ([]model.AuditRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordAuditQueryLatency(float64(time.Since(start).Microseconds()) / 1000) }()

	rows, err := p.db.QueryContext(ctx,
		`SELECT sequence, payload FROM audit_records
		 WHERE identifier = $1
		   AND ($2::timestamptz IS NULL OR created_at >= $2)
		   AND ($3::timestamptz IS NULL OR created_at <= $3)
		 ORDER BY created_at DESC, sequence DESC
		 LIMIT $4`,
		identifier, nullTime(q.From), nullTime(q.To), q.limit(),
	)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var out []model.AuditRecord
	err = scanRecords(rows, func(r model.AuditRecord) bool {
		out = append(out, r)
		return true
	})
	return out, err
}

// Scan visits records in sequence order.
func (p *PostgresLog) Scan(ctx context.Context, fn func(model.AuditRecord) bool) error {
	rows, err := p.db.QueryContext(ctx, `SELECT sequence, payload FROM audit_records ORDER BY sequence`)
	if err != nil {
		return fmt.Errorf("scan audit records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows, fn)
}

// Count returns the number of records.
func (p *PostgresLog) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit records: %w", err)
	}
	return n, nil
}

// Close stops the metrics loop. It does not close the database.
func (p *PostgresLog) Close() error {
	p.once.Do(func() { close(p.stop) })
	p.wg.Wait()
	return nil
}

func scanRecords(rows *sql.Rows, fn func(model.AuditRecord) bool) error {
	for rows.Next() {
		var (
			seq     int64
			payload []byte
		)
		if err := rows.Scan(&seq, &payload); err != nil {
			return fmt.Errorf("scan audit row: %w", err)
		}
		var rec model.AuditRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return fmt.Errorf("%w: record %d: %v", ErrCorruptLog, seq, err)
		}
		rec.Sequence = seq
		if !fn(rec) {
			return nil
		}
	}
	return rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
