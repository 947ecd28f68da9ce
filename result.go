package jsonld

import (
	"time"

	"github.com/gofhir/jsonld/node"
)

// Result is the outcome of expanding one document in a batch or stream.
// Exactly one of Graph and Err is set.
type Result struct {
	// JobID correlates the result with its submission.
	JobID string `json:"jobId,omitempty"`

	// Index is the position of the document in its batch or stream.
	Index int `json:"index"`

	// Source names the document (file name, URL), if known.
	Source string `json:"source,omitempty"`

	// Graph is the expanded document.
	Graph *node.Graph `json:"graph,omitempty"`

	// Err is set when expansion failed.
	Err error `json:"-"`

	// Duration is the wall time spent expanding.
	Duration time.Duration `json:"duration"`
}

// OK reports whether the expansion succeeded.
func (r *Result) OK() bool {
	return r != nil && r.Err == nil
}

// ErrorCode returns the code of a failed result, or "" when it succeeded or
// failed with a foreign error.
func (r *Result) ErrorCode() ErrorCode {
	if r == nil || r.Err == nil {
		return ""
	}
	if e, ok := r.Err.(*Error); ok {
		return e.Code
	}
	return ""
}

// Summary counts outcomes over a set of results.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Objects   int
}

// Summarize counts outcomes over results.
func Summarize(results []*Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.OK() {
			s.Succeeded++
			if r.Graph != nil {
				s.Objects += r.Graph.Len()
			}
		} else {
			s.Failed++
		}
	}
	return s
}
