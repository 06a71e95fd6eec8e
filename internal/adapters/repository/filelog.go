package repository

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/okian/netrisk/internal/domain/model"
	"github.com/okian/netrisk/pkg/json"
	"github.com/okian/netrisk/pkg/logger"
	"github.com/okian/netrisk/pkg/metrics"
)

// FileLog is a JSON-lines audit log. Each record is encoded in full and
// written with a single call, so a crash leaves at most one torn line at
// the tail; OpenFileLog cuts it off. Reads are served from an in-memory
// index rebuilt on open.
type FileLog struct {
	mu     sync.Mutex
	f      *os.File
	offset int64
	index  *MemoryLog
	opts   options
	closed bool
}

// OpenFileLog opens or creates the log at path.
func OpenFileLog(path string, opts ...Option) (*FileLog, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	l := &FileLog{f: f, index: NewMemoryLog(), opts: o}
	if err := l.load(); err != nil {
		_ = f.Close()
		return nil, err
	}
	metrics.UpdateAuditRecords(len(l.index.records))
	return l, nil
}

func (l *FileLog) load() error {
	r := bufio.NewReader(l.f)
	var offset int64
	torn := false
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 && line[len(line)-1] == '\n' {
			var rec model.AuditRecord
			if derr := json.Unmarshal(bytes.TrimSpace(line), &rec); derr != nil {
				if _, perr := r.Peek(1); perr != io.EOF {
					return fmt.Errorf("%w: line at offset %d: %v", ErrCorruptLog, offset, derr)
				}
				torn = true
				break
			}
			l.index.add(rec)
			offset += int64(len(line))
		}
		if err == io.EOF {
			torn = torn || len(line) > 0 && line[len(line)-1] != '\n'
			break
		}
		if err != nil {
			return fmt.Errorf("read audit log: %w", err)
		}
	}

	if torn {
		logger.Get().Named("audit").Warn(context.Background(), "truncating torn audit log tail",
			logger.String("path", l.f.Name()), logger.Int64("offset", offset))
		if err := l.f.Truncate(offset); err != nil {
			return fmt.Errorf("truncate audit log: %w", err)
		}
	}
	if _, err := l.f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek audit log: %w", err)
	}
	l.offset = offset
	return nil
}

// Append encodes rec as one line and writes it.
func (l *FileLog) Append(_ context.Context, rec model.AuditRecord) (model.AuditRecord, error) {
	if err := validate(rec); err != nil {
		return rec, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return rec, ErrClosed
	}

	l.index.mu.RLock()
	rec.Sequence = int64(len(l.index.records) + 1)
	l.index.mu.RUnlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return rec, fmt.Errorf("encode audit record: %w", err)
	}
	data = append(data, '\n')
	if _, err := l.f.Write(data); err != nil {
		// Drop any partial write so the next append starts on a clean line.
		_ = l.f.Truncate(l.offset)
		_, _ = l.f.Seek(l.offset, io.SeekStart)
		return rec, fmt.Errorf("write audit record: %w", err)
	}
	if l.opts.fsync {
		if err := l.f.Sync(); err != nil {
			return rec, fmt.Errorf("sync audit log: %w", err)
		}
	}
	l.offset += int64(len(data))

	l.index.mu.Lock()
	l.index.add(rec)
	stored := clone(l.index.records[len(l.index.records)-1])
	n := len(l.index.records)
	l.index.mu.Unlock()

	metrics.UpdateAuditRecords(n)
	return stored, nil
}

// History returns records for identifier, newest first.
func (l *FileLog) History(ctx context.Context, identifier string, q Query) ([]model.AuditRecord, error) {
	return l.index.History(ctx, identifier, q)
}

// Scan visits records in append order.
func (l *FileLog) Scan(ctx context.Context, fn func(model.AuditRecord) bool) error {
	return l.index.Scan(ctx, fn)
}

// Count returns the number of records.
func (l *FileLog) Count(ctx context.Context) (int, error) {
	return l.index.Count(ctx)
}

// Close syncs and closes the file.
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	_ = l.index.Close()
	if err := l.f.Sync(); err != nil {
		_ = l.f.Close()
		return err
	}
	return l.f.Close()
}
