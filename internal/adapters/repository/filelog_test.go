package repository

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/okian/netrisk/pkg/logger"
)

func init() {
	logger.Init()
}

func TestFileLog_ReopenRestoresRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	log, err := OpenFileLog(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := log.Append(ctx, record(i, "+919999999101")); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	log, err = OpenFileLog(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer log.Close()

	if n, _ := log.Count(ctx); n != 3 {
		t.Fatalf("expected 3 records after reopen, got %d", n)
	}
	got, _ := log.History(ctx, "+919999999101", Query{})
	if got[0].ID != "rec-002" || got[0].Sequence != 3 {
		t.Errorf("unexpected newest record: %s seq %d", got[0].ID, got[0].Sequence)
	}
	if got[0].Breakdown.TriggeredRules[0].ID != "SIM_SWAP_DETECTED" {
		t.Errorf("breakdown not restored: %+v", got[0].Breakdown)
	}

	rec, err := log.Append(ctx, record(3, "+919999999101"))
	if err != nil {
		t.Fatalf("append after reopen: %v", err)
	}
	if rec.Sequence != 4 {
		t.Errorf("expected sequence 4, got %d", rec.Sequence)
	}
}

func TestFileLog_TruncatesTornTail(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	log, err := OpenFileLog(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := log.Append(ctx, record(i, "+919999999101")); err != nil {
			t.Fatal(err)
		}
	}
	_ = log.Close()

	intact, _ := os.ReadFile(path)
	f, _ := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	_, _ = f.WriteString(`{"id":"rec-002","transaction":{"identifier":"+9199`)
	_ = f.Close()

	log, err = OpenFileLog(path)
	if err != nil {
		t.Fatalf("reopen with torn tail: %v", err)
	}
	if n, _ := log.Count(ctx); n != 2 {
		t.Errorf("expected 2 records, got %d", n)
	}
	if _, err := log.Append(ctx, record(2, "+919999999101")); err != nil {
		t.Fatal(err)
	}
	_ = log.Close()

	data, _ := os.ReadFile(path)
	if !bytes.HasPrefix(data, intact) {
		t.Error("intact prefix was modified")
	}
	if bytes.Count(data, []byte("\n")) != 3 {
		t.Errorf("expected 3 lines, got %q", data)
	}
}

func TestFileLog_TruncatesUndecodableLastLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	if err := os.WriteFile(path, []byte("{not json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	log, err := OpenFileLog(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer log.Close()
	if n, _ := log.Count(context.Background()); n != 0 {
		t.Errorf("expected empty log, got %d", n)
	}
}

func TestFileLog_RejectsCorruptMiddle(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	log, err := OpenFileLog(path)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = log.Append(ctx, record(0, "+919999999101"))
	_ = log.Close()

	good, _ := os.ReadFile(path)
	corrupt := append([]byte("{broken\n"), good...)
	if err := os.WriteFile(path, corrupt, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenFileLog(path); !errors.Is(err, ErrCorruptLog) {
		t.Errorf("expected ErrCorruptLog, got %v", err)
	}
}

func TestFileLog_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	log, err := OpenFileLog(path, WithFsync(false))
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := log.Append(ctx, record(i, "+919999999101")); err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()
	_ = log.Close()

	log, err = OpenFileLog(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer log.Close()
	if n, _ := log.Count(ctx); n != 50 {
		t.Errorf("expected 50 records, got %d", n)
	}
}

func TestFileLog_Closed(t *testing.T) {
	log, err := OpenFileLog(filepath.Join(t.TempDir(), "audit.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	_ = log.Close()
	if _, err := log.Append(context.Background(), record(0, "+919999999101")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
