package worker

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	ld "github.com/gofhir/jsonld"
	"github.com/gofhir/jsonld/value"
)

// Batch expands a fixed set of documents in parallel and returns the
// results in input order.
type Batch struct {
	expander Expander
	workers  int
}

// NewBatch creates a batch runner. If workers <= 0, it defaults to
// runtime.NumCPU().
func NewBatch(exp Expander, workers int) *Batch {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Batch{
		expander: exp,
		workers:  workers,
	}
}

// ExpandAll expands raw JSON or YAML documents.
func (b *Batch) ExpandAll(ctx context.Context, docs [][]byte) *BatchResult {
	jobs := make([]Job, len(docs))
	for i, d := range docs {
		jobs[i] = Job{Index: i, Data: d}
	}
	return b.Run(ctx, jobs)
}

// ExpandValues expands parsed documents.
func (b *Batch) ExpandValues(ctx context.Context, docs []value.Value) *BatchResult {
	jobs := make([]Job, len(docs))
	for i, d := range docs {
		jobs[i] = Job{Index: i, Document: d}
	}
	return b.Run(ctx, jobs)
}

// Run expands jobs. A failed document does not stop the others; once ctx is
// cancelled, jobs not yet started are left out and their slots stay nil.
func (b *Batch) Run(ctx context.Context, jobs []Job) *BatchResult {
	out := &BatchResult{
		Results:   make([]*ld.Result, len(jobs)),
		TotalJobs: len(jobs),
	}
	if len(jobs) == 0 {
		return out
	}

	for i := range jobs {
		if jobs[i].ID == "" {
			jobs[i].ID = NewJobID()
		}
	}

	// For small batches, don't use parallelism
	if len(jobs) <= 2 || b.workers == 1 {
		for i, job := range jobs {
			if ctx.Err() != nil {
				break
			}
			out.Results[i] = job.Run(ctx, b.expander)
		}
	} else {
		// The group only bounds concurrency. Job failures land in Results and
		// never fail the group, so Wait always returns nil.
		var g errgroup.Group
		g.SetLimit(min(b.workers, len(jobs)))
		for i, job := range jobs {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				out.Results[i] = job.Run(ctx, b.expander)
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, r := range out.Results {
		if r != nil {
			out.record(r)
		}
	}
	return out
}

// ExpandBatch is a convenience function for batch expansion with one
// worker per CPU.
func ExpandBatch(ctx context.Context, exp Expander, docs [][]byte) *BatchResult {
	return NewBatch(exp, runtime.NumCPU()).ExpandAll(ctx, docs)
}
