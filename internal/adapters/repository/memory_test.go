package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/netrisk/internal/domain/model"
)

func TestMemoryLog_AppendAndHistory(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog()

	for i := 0; i < 5; i++ {
		id := "+919999999101"
		if i%2 == 1 {
			id = "+919999999102"
		}
		rec, err := log.Append(ctx, record(i, id))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if rec.Sequence != int64(i+1) {
			t.Errorf("expected sequence %d, got %d", i+1, rec.Sequence)
		}
	}

	if n, _ := log.Count(ctx); n != 5 {
		t.Errorf("expected count 5, got %d", n)
	}

	got, err := log.History(ctx, "+919999999101", Query{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	// newest first
	if got[0].ID != "rec-004" || got[2].ID != "rec-000" {
		t.Errorf("unexpected order: %s .. %s", got[0].ID, got[2].ID)
	}

	got, _ = log.History(ctx, "+919999999101", Query{Limit: 1})
	if len(got) != 1 || got[0].ID != "rec-004" {
		t.Errorf("limit not applied: %+v", got)
	}

	got, _ = log.History(ctx, "+919999999101", Query{From: baseTime.Add(time.Minute), To: baseTime.Add(3 * time.Minute)})
	if len(got) != 1 || got[0].ID != "rec-002" {
		t.Errorf("time range not applied: %+v", got)
	}

	got, _ = log.History(ctx, "+910000000000", Query{})
	if len(got) != 0 {
		t.Errorf("expected no records for unknown identifier, got %d", len(got))
	}
}

func TestMemoryLog_InvalidRecord(t *testing.T) {
	log := NewMemoryLog()
	rec := record(0, "")
	if _, err := log.Append(context.Background(), rec); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestMemoryLog_RecordsAreIsolated(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog()
	rec := record(0, "+919999999101")
	if _, err := log.Append(ctx, rec); err != nil {
		t.Fatal(err)
	}
	rec.Breakdown.TriggeredRules[0].ID = "MUTATED"

	got, _ := log.History(ctx, "+919999999101", Query{})
	if got[0].Breakdown.TriggeredRules[0].ID != "SIM_SWAP_DETECTED" {
		t.Error("stored record shares memory with caller")
	}

	got[0].Breakdown.TriggeredRules[0].ID = "MUTATED"
	got[0].Explanation.Factors[0] = "MUTATED"
	_ = log.Scan(ctx, func(r model.AuditRecord) bool {
		r.Breakdown.TriggeredRules[0].ID = "MUTATED_BY_SCAN"
		return true
	})

	again, _ := log.History(ctx, "+919999999101", Query{})
	if again[0].Breakdown.TriggeredRules[0].ID != "SIM_SWAP_DETECTED" {
		t.Errorf("history result shares memory with the log: %s", again[0].Breakdown.TriggeredRules[0].ID)
	}
	if again[0].Explanation.Factors[0] == "MUTATED" {
		t.Error("history factors share memory with the log")
	}
}

func TestMemoryLog_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := log.Append(ctx, record(i, testNumber(i))); err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if n, _ := log.Count(ctx); n != 50 {
		t.Fatalf("expected 50 records, got %d", n)
	}
	for i := 0; i < 50; i++ {
		got, err := log.History(ctx, testNumber(i), Query{})
		if err != nil || len(got) != 1 {
			t.Errorf("identifier %s: expected exactly 1 record, got %d (%v)", testNumber(i), len(got), err)
		}
	}
	seen := make(map[int64]bool)
	_ = log.Scan(ctx, func(r model.AuditRecord) bool {
		seen[r.Sequence] = true
		return true
	})
	if len(seen) != 50 {
		t.Errorf("expected 50 distinct sequences, got %d", len(seen))
	}
}

func testNumber(i int) string { return fmt.Sprintf("+61400500%03d", 800+i) }

func TestMemoryLog_ScanStopsEarly(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog()
	for i := 0; i < 3; i++ {
		_, _ = log.Append(ctx, record(i, "+919999999101"))
	}
	visited := 0
	_ = log.Scan(ctx, func(model.AuditRecord) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Errorf("expected scan to stop after 1 record, visited %d", visited)
	}
}

func TestMemoryLog_Closed(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog()
	_ = log.Close()
	if _, err := log.Append(ctx, record(0, "+919999999101")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestQueryLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 7: 7, MaxLimit + 1: MaxLimit}
	for in, want := range cases {
		if got := (Query{Limit: in}).limit(); got != want {
			t.Errorf("limit(%d) = %d, want %d", in, got, want)
		}
	}
}
