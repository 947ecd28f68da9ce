package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	ld "github.com/gofhir/jsonld"
	"github.com/gofhir/jsonld/engine"
	"github.com/gofhir/jsonld/loader"
	"github.com/gofhir/jsonld/pkg/logger"
	"github.com/gofhir/jsonld/value"
)

func TestBatch_EmptyBatch(t *testing.T) {
	result := NewBatch(&mockExpander{}, 2).ExpandAll(context.Background(), nil)
	if result.TotalJobs != 0 || len(result.Results) != 0 {
		t.Errorf("result = %+v; want empty", result)
	}
}

func TestBatch_SmallBatch(t *testing.T) {
	exp := &mockExpander{}
	docs := [][]byte{
		[]byte(`{"@id":"https://example.org/a"}`),
		[]byte(`{"@id":"https://example.org/b"}`),
	}

	result := NewBatch(exp, 2).ExpandAll(context.Background(), docs)
	if result.TotalJobs != 2 {
		t.Errorf("TotalJobs = %d; want 2", result.TotalJobs)
	}
	if result.CompletedJobs != 2 {
		t.Errorf("CompletedJobs = %d; want 2", result.CompletedJobs)
	}
	if int(exp.callCount.Load()) != 2 {
		t.Errorf("callCount = %d; want 2", exp.callCount.Load())
	}
}

func TestBatch_ParallelExecution(t *testing.T) {
	exp := &mockExpander{delay: 10 * time.Millisecond}

	docs := make([][]byte, 10)
	for i := range docs {
		docs[i] = []byte(`{}`)
	}

	start := time.Now()
	result := NewBatch(exp, 4).ExpandAll(context.Background(), docs)
	duration := time.Since(start)

	if result.TotalJobs != 10 {
		t.Errorf("TotalJobs = %d; want 10", result.TotalJobs)
	}
	if result.CompletedJobs != 10 {
		t.Errorf("CompletedJobs = %d; want 10", result.CompletedJobs)
	}
	if int(exp.callCount.Load()) != 10 {
		t.Errorf("callCount = %d; want 10", exp.callCount.Load())
	}
	for i, r := range result.Results {
		if r.Index != i {
			t.Errorf("Results[%d].Index = %d", i, r.Index)
		}
	}

	// With 4 workers and 10 jobs of 10ms each, should complete faster than sequential
	if duration > 200*time.Millisecond {
		t.Errorf("duration = %v; expected < 200ms for parallel execution", duration)
	}
}

func TestBatch_FailuresDoNotStopOthers(t *testing.T) {
	exp := engine.New(ld.WithLogger(logger.Discard()))

	docs := [][]byte{
		[]byte(`{"@id":"https://example.org/a","http://example.org/p":"x"}`),
		[]byte(`{"@id":"relative"}`),
		[]byte(`not json`),
		[]byte(`{"@id":"https://example.org/d","http://example.org/p":"y"}`),
	}

	result := NewBatch(exp, 4).ExpandAll(context.Background(), docs)
	if result.FailedJobs != 2 {
		t.Fatalf("FailedJobs = %d; want 2", result.FailedJobs)
	}
	if got := result.Results[1].ErrorCode(); got != ld.CodeInvalidIdentifier {
		t.Errorf("Results[1] code = %q; want %q", got, ld.CodeInvalidIdentifier)
	}
	if got := result.Results[2].ErrorCode(); got != ld.CodeInvalidInput {
		t.Errorf("Results[2] code = %q; want %q", got, ld.CodeInvalidInput)
	}

	s := result.Summary()
	if s.Succeeded != 2 || s.Objects != 2 {
		t.Errorf("Summary = %+v", s)
	}
	if len(result.Errors()) != 2 {
		t.Errorf("Errors() = %d; want 2", len(result.Errors()))
	}
}

func TestBatch_SharedContextLoadedOnce(t *testing.T) {
	var loads atomic.Int32
	ctxDoc := value.MustFromAny(map[string]any{
		"@context": map[string]any{"name": "http://xmlns.com/foaf/0.1/name"},
	})
	l := loader.Func(func(ctx context.Context, url string) (*loader.RemoteDocument, error) {
		loads.Add(1)
		return &loader.RemoteDocument{URL: url, Document: ctxDoc}, nil
	})
	exp := engine.New(ld.WithLoader(l), ld.WithLogger(logger.Discard()))

	docs := make([]value.Value, 8)
	for i := range docs {
		docs[i] = value.MustFromAny(map[string]any{
			"@context": "https://example.org/ctx",
			"name":     fmt.Sprintf("n%d", i),
		})
	}

	result := NewBatch(exp, 1).ExpandValues(context.Background(), docs)
	if result.HasErrors() {
		t.Fatalf("unexpected failures: %v", result.Errors()[0].Err)
	}
	if got := loads.Load(); got != 1 {
		t.Errorf("loads = %d; want 1", got)
	}
}

func TestBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewBatch(&mockExpander{}, 4).ExpandAll(ctx, [][]byte{[]byte(`{}`), []byte(`{}`), []byte(`{}`)})
	if result.CompletedJobs != 0 {
		t.Errorf("CompletedJobs = %d; want 0", result.CompletedJobs)
	}
	if result.TotalJobs != 3 {
		t.Errorf("TotalJobs = %d; want 3", result.TotalJobs)
	}
}

func TestBatchResult_HasErrors(t *testing.T) {
	t.Run("no failures", func(t *testing.T) {
		br := &BatchResult{}
		br.record(&ld.Result{JobID: "1"})
		if br.HasErrors() {
			t.Error("expected HasErrors() = false")
		}
	})

	t.Run("with error", func(t *testing.T) {
		br := &BatchResult{}
		br.record(&ld.Result{JobID: "1", Err: ErrNoExpander})
		if !br.HasErrors() {
			t.Error("expected HasErrors() = true when error present")
		}
	})
}

func TestExpandBatch(t *testing.T) {
	exp := &mockExpander{err: errors.New("boom")}

	docs := [][]byte{[]byte(`{}`), []byte(`{}`), []byte(`{}`)}
	result := ExpandBatch(context.Background(), exp, docs)
	if result.TotalJobs != 3 || result.FailedJobs != 3 {
		t.Errorf("result = %+v; want three failed jobs", result)
	}
	for _, r := range result.Results {
		if r.JobID == "" {
			t.Error("expected every job to get an ID")
		}
	}
}
