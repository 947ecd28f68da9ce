package worker

import (
	"context"
	"time"

	"github.com/google/uuid"

	ld "github.com/gofhir/jsonld"
	ldctx "github.com/gofhir/jsonld/context"
	"github.com/gofhir/jsonld/node"
	"github.com/gofhir/jsonld/value"
)

// Expander is the part of engine.Expander the pool needs.
type Expander interface {
	Expand(ctx context.Context, doc value.Value, initial *ldctx.Context) (*node.Graph, error)
	ExpandBytes(ctx context.Context, data []byte, initial *ldctx.Context) (*node.Graph, error)
}

// Job is one document to expand.
type Job struct {
	// ID is a unique identifier for this job. Submit assigns a UUID when empty.
	ID string

	// Index is the position of the document in its batch or stream.
	Index int

	// Source names the document (file name, URL), if known.
	Source string

	// Data is the raw JSON or YAML document. When nil, Document is used.
	Data []byte

	// Document is an already parsed document.
	Document value.Value

	// Context is the initial active context. Nil uses the expander's default.
	Context *ldctx.Context
}

// NewJobID returns a fresh job identifier.
func NewJobID() string {
	return uuid.New().String()
}

// Run expands the job with exp and times it.
func (j Job) Run(ctx context.Context, exp Expander) *ld.Result {
	start := time.Now()
	r := &ld.Result{
		JobID:  j.ID,
		Index:  j.Index,
		Source: j.Source,
	}

	switch {
	case exp == nil:
		r.Err = ErrNoExpander
	case j.Data != nil:
		r.Graph, r.Err = exp.ExpandBytes(ctx, j.Data, j.Context)
	default:
		r.Graph, r.Err = exp.Expand(ctx, j.Document, j.Context)
	}

	r.Duration = time.Since(start)
	return r
}

// BatchResult aggregates results from multiple jobs.
type BatchResult struct {
	// Results contains all job results. For Batch they are in input order;
	// for Pool they are in completion order.
	Results []*ld.Result

	// TotalJobs is the number of jobs submitted.
	TotalJobs int

	// CompletedJobs is the number of jobs completed (including errors).
	CompletedJobs int

	// FailedJobs is the number of jobs that failed with an error.
	FailedJobs int

	// TotalDuration is the summed expansion time of all jobs.
	TotalDuration time.Duration
}

// HasErrors returns true if any job failed.
func (br *BatchResult) HasErrors() bool {
	return br.FailedJobs > 0
}

// Errors returns the failed results.
func (br *BatchResult) Errors() []*ld.Result {
	var out []*ld.Result
	for _, r := range br.Results {
		if r != nil && !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Summary counts outcomes over the completed results.
func (br *BatchResult) Summary() ld.Summary {
	completed := make([]*ld.Result, 0, len(br.Results))
	for _, r := range br.Results {
		if r != nil {
			completed = append(completed, r)
		}
	}
	return ld.Summarize(completed)
}

func (br *BatchResult) record(r *ld.Result) {
	br.CompletedJobs++
	br.TotalDuration += r.Duration
	if !r.OK() {
		br.FailedJobs++
	}
}
