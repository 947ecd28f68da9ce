package jsonld

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMetrics_Basic(t *testing.T) {
	m := NewMetrics()

	if m.ExpansionsTotal() != 0 {
		t.Errorf("ExpansionsTotal() = %d; want 0", m.ExpansionsTotal())
	}

	m.RecordExpansion(100*time.Millisecond, nil)
	m.RecordExpansion(300*time.Millisecond, ContextLoadFailed("https://example.org/ctx", errors.New("boom")))

	if m.ExpansionsTotal() != 2 {
		t.Errorf("ExpansionsTotal() = %d; want 2", m.ExpansionsTotal())
	}
	if m.ExpansionsFailed() != 1 {
		t.Errorf("ExpansionsFailed() = %d; want 1", m.ExpansionsFailed())
	}
	if m.ErrorCount(CodeContextLoadFailed) != 1 {
		t.Errorf("ErrorCount(load) = %d; want 1", m.ErrorCount(CodeContextLoadFailed))
	}
	if m.ErrorCount(CodeCancelled) != 0 {
		t.Errorf("ErrorCount(cancelled) = %d; want 0", m.ErrorCount(CodeCancelled))
	}
}

func TestMetrics_Timing(t *testing.T) {
	m := NewMetrics()

	if m.MinExpansionTime() != 0 {
		t.Errorf("MinExpansionTime() before records = %v; want 0", m.MinExpansionTime())
	}

	m.RecordExpansion(10*time.Millisecond, nil)
	m.RecordExpansion(30*time.Millisecond, nil)
	m.RecordExpansion(20*time.Millisecond, nil)

	if got := m.MinExpansionTime(); got != 10*time.Millisecond {
		t.Errorf("MinExpansionTime() = %v; want 10ms", got)
	}
	if got := m.MaxExpansionTime(); got != 30*time.Millisecond {
		t.Errorf("MaxExpansionTime() = %v; want 30ms", got)
	}
	if got := m.AverageExpansionTime(); got != 20*time.Millisecond {
		t.Errorf("AverageExpansionTime() = %v; want 20ms", got)
	}
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.RecordLoad(true)
	m.RecordLoad(false)
	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordNodes(4)
	m.RecordNodes(0)
	m.RecordDroppedTerm()
	m.RecordDroppedValue()
	m.RecordDroppedValue()

	if m.Loads() != 2 || m.LoadFailures() != 1 {
		t.Errorf("Loads/LoadFailures = %d/%d; want 2/1", m.Loads(), m.LoadFailures())
	}
	if rate := m.CacheHitRate(); rate != 0.75 {
		t.Errorf("CacheHitRate() = %v; want 0.75", rate)
	}
	if m.NodesBuilt() != 4 {
		t.Errorf("NodesBuilt() = %d; want 4", m.NodesBuilt())
	}
	if m.DroppedTerms() != 1 || m.DroppedValues() != 2 {
		t.Errorf("Dropped = %d/%d; want 1/2", m.DroppedTerms(), m.DroppedValues())
	}
}

func TestMetrics_Concurrent(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordExpansion(time.Microsecond, nil)
				m.RecordExpansion(time.Microsecond, Cancelled(nil))
			}
		}()
	}
	wg.Wait()

	if m.ExpansionsTotal() != 10000 {
		t.Errorf("ExpansionsTotal() = %d; want 10000", m.ExpansionsTotal())
	}
	if m.ErrorCount(CodeCancelled) != 5000 {
		t.Errorf("ErrorCount(cancelled) = %d; want 5000", m.ErrorCount(CodeCancelled))
	}
}

func TestMetrics_SnapshotAndExport(t *testing.T) {
	m := NewMetrics()
	m.RecordExpansion(time.Millisecond, nil)
	m.RecordExpansion(time.Millisecond, NewError(CodeInvalidIdentifier, "bad"))
	m.RecordExpansion(time.Millisecond, Cancelled(nil))

	s := m.Snapshot()
	if s.ExpansionsTotal != 3 || s.ExpansionsFailed != 2 {
		t.Errorf("snapshot counts = %d/%d; want 3/2", s.ExpansionsTotal, s.ExpansionsFailed)
	}
	if len(s.Errors) != 2 {
		t.Fatalf("len(Errors) = %d; want 2", len(s.Errors))
	}
	if s.Errors[0].Code > s.Errors[1].Code {
		t.Error("Errors should be sorted by code")
	}

	exp := m.Export()
	if exp["expansions_total"] != uint64(3) {
		t.Errorf("export expansions_total = %v", exp["expansions_total"])
	}
	if exp["errors{"+string(CodeInvalidIdentifier)+"}"] != uint64(1) {
		t.Errorf("export missing per-code count: %v", exp)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := NewMetrics()
	m.RecordExpansion(time.Millisecond, Cancelled(nil))
	m.RecordLoad(false)

	m.Reset()

	if m.ExpansionsTotal() != 0 || m.Loads() != 0 || m.ErrorCount(CodeCancelled) != 0 {
		t.Error("Reset should clear all counters")
	}
	if m.MinExpansionTime() != 0 {
		t.Errorf("MinExpansionTime() after reset = %v; want 0", m.MinExpansionTime())
	}
}
