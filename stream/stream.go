// Package stream provides streaming expansion of multi-document inputs.
//
// Two framings are supported: newline-delimited JSON (one document per
// line) and a top-level JSON array whose elements are independent
// documents. Documents are decoded one at a time, so the input is never held
// in memory as a whole.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	ld "github.com/gofhir/jsonld"
	"github.com/gofhir/jsonld/pkg/logger"
	"github.com/gofhir/jsonld/value"
	"github.com/gofhir/jsonld/worker"
)

// Format selects how documents are framed in the input.
type Format int

const (
	// FormatAuto picks FormatArray when the first non-space byte is '[' and
	// FormatNDJSON otherwise.
	FormatAuto Format = iota
	// FormatNDJSON reads one JSON document per line. Blank lines are skipped.
	FormatNDJSON
	// FormatArray reads the elements of a top-level JSON array.
	FormatArray
)

// String implements fmt.Stringer.
func (f Format) String() string {
	switch f {
	case FormatNDJSON:
		return "ndjson"
	case FormatArray:
		return "array"
	default:
		return "auto"
	}
}

// MaxLineSize bounds a single NDJSON record.
const MaxLineSize = 16 << 20

// Expander expands the documents of a stream.
type Expander struct {
	// expander expands individual documents
	expander worker.Expander

	// bufferSize is the channel buffer size
	bufferSize int

	// workerCount is the number of parallel workers
	workerCount int

	format Format
	log    *logger.Logger
}

// NewExpander creates a new streaming expander.
func NewExpander(exp worker.Expander) *Expander {
	return &Expander{
		expander:    exp,
		bufferSize:  100,
		workerCount: 4,
		log:         logger.Default(),
	}
}

// WithBufferSize sets the channel buffer size.
func (e *Expander) WithBufferSize(size int) *Expander {
	if size > 0 {
		e.bufferSize = size
	}
	return e
}

// WithWorkerCount sets the number of parallel workers.
func (e *Expander) WithWorkerCount(count int) *Expander {
	if count > 0 {
		e.workerCount = count
	}
	return e
}

// WithFormat sets the input framing.
func (e *Expander) WithFormat(f Format) *Expander {
	e.format = f
	return e
}

// WithLogger sets the logger.
func (e *Expander) WithLogger(l *logger.Logger) *Expander {
	if l != nil {
		e.log = l
	}
	return e
}

// record is one decoded document, or the reason it could not be decoded.
type record struct {
	index int
	doc   value.Value
	err   error
}

// Stream expands the documents read from r one after another, emitting a
// result per document in input order. source names the input in results.
//
// A document that cannot be parsed yields a failed result and the stream
// continues with the next one. A framing error that makes the rest of the
// input unreadable yields a final result with Index -1.
func (e *Expander) Stream(ctx context.Context, source string, r io.Reader) <-chan *ld.Result {
	results := make(chan *ld.Result, e.bufferSize)

	go func() {
		defer close(results)

		e.decode(ctx, r, func(rec record) bool {
			var res *ld.Result
			if rec.err != nil {
				res = &ld.Result{Index: rec.index, Source: source, Err: rec.err}
			} else {
				job := worker.Job{ID: worker.NewJobID(), Index: rec.index, Source: source, Document: rec.doc}
				res = job.Run(ctx, e.expander)
			}
			return send(ctx, results, res)
		})
	}()

	return results
}

// StreamParallel expands documents concurrently on a worker pool while
// preserving input order in the output.
func (e *Expander) StreamParallel(ctx context.Context, source string, r io.Reader) <-chan *ld.Result {
	results := make(chan *ld.Result, e.bufferSize)

	go func() {
		defer close(results)

		pool := worker.NewPoolWithContext(ctx, e.expander, e.workerCount)
		merged := make(chan *ld.Result, e.bufferSize)

		var wg sync.WaitGroup
		wg.Add(2)

		// Forward pool results
		go func() {
			defer wg.Done()
			for res := range pool.Results() {
				merged <- res
			}
		}()

		// Decode and submit; undecodable records bypass the pool
		go func() {
			defer wg.Done()
			defer pool.Finish()
			e.decode(ctx, r, func(rec record) bool {
				if rec.err != nil {
					return send(ctx, merged, &ld.Result{Index: rec.index, Source: source, Err: rec.err})
				}
				return pool.Submit(worker.Job{Index: rec.index, Source: source, Document: rec.doc})
			})
		}()

		go func() {
			wg.Wait()
			close(merged)
		}()

		// Collect results and reorder
		pending := make(map[int]*ld.Result)
		next := 0
		for res := range merged {
			if res.Index < 0 {
				// Framing errors come after every decoded record
				pending[res.Index] = res
				continue
			}
			pending[res.Index] = res
			for {
				r, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				if !send(ctx, results, r) {
					go drain(merged)
					return
				}
			}
		}
		if r, ok := pending[-1]; ok {
			send(ctx, results, r)
		}
	}()

	return results
}

// decode frames r into records and calls emit for each until emit returns
// false, ctx is done or the input ends.
func (e *Expander) decode(ctx context.Context, r io.Reader, emit func(record) bool) {
	br := bufio.NewReader(r)

	format := e.format
	if format == FormatAuto {
		format = sniff(br)
	}
	e.log.Debug("stream started", "format", format.String())

	var err error
	if format == FormatArray {
		err = decodeArray(ctx, br, emit)
	} else {
		err = decodeLines(ctx, br, emit)
	}
	if err != nil {
		emit(record{index: -1, err: err})
	}
}

func decodeLines(ctx context.Context, r io.Reader, emit func(record) bool) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	index := 0
	for sc.Scan() {
		if ctx.Err() != nil {
			return ld.Cancelled(ctx.Err())
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if !emit(parseRecord(index, line)) {
			return nil
		}
		index++
	}
	if err := sc.Err(); err != nil {
		return ld.Wrap(ld.CodeInvalidInput, err, "failed to read line %d", index+1)
	}
	return nil
}

func decodeArray(ctx context.Context, r io.Reader, emit func(record) bool) error {
	dec := json.NewDecoder(r)

	token, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return ld.Wrap(ld.CodeInvalidInput, err, "failed to read array")
	}
	if delim, ok := token.(json.Delim); !ok || delim != '[' {
		return ld.NewError(ld.CodeInvalidInput, "expected array start, got %v", token)
	}

	index := 0
	for dec.More() {
		if ctx.Err() != nil {
			return ld.Cancelled(ctx.Err())
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return ld.Wrap(ld.CodeInvalidInput, err, "failed to decode element %d", index)
		}
		if !emit(parseRecord(index, raw)) {
			return nil
		}
		index++
	}
	if _, err := dec.Token(); err != nil {
		return ld.Wrap(ld.CodeInvalidInput, err, "failed to read array end")
	}
	return nil
}

func parseRecord(index int, data []byte) record {
	doc, err := value.Parse(data)
	if err != nil {
		return record{index: index, err: ld.Wrap(ld.CodeInvalidInput, err, "document %d", index)}
	}
	return record{index: index, doc: doc}
}

// sniff peeks at the first non-space byte without consuming it.
func sniff(br *bufio.Reader) Format {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return FormatNDJSON
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			_ = br.UnreadByte()
			return FormatArray
		default:
			_ = br.UnreadByte()
			return FormatNDJSON
		}
	}
}

func send(ctx context.Context, ch chan<- *ld.Result, r *ld.Result) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case ch <- r:
		return true
	}
}

func drain(ch <-chan *ld.Result) {
	for range ch {
	}
}

// Aggregate collects all results from a stream.
func Aggregate(results <-chan *ld.Result) *Summary {
	agg := &Summary{Failures: make(map[int]error)}

	for r := range results {
		if r.Index < 0 {
			agg.ProcessingErrors = append(agg.ProcessingErrors, r.Err)
			continue
		}
		agg.Total++
		if !r.OK() {
			agg.Failed++
			agg.Failures[r.Index] = r.Err
			continue
		}
		if r.Graph != nil {
			agg.Objects += r.Graph.Len()
			agg.Nodes += r.Graph.Count()
		}
	}

	return agg
}

// Summary aggregates results from streaming expansion.
type Summary struct {
	// Total is the number of documents processed
	Total int

	// Failed is the count of documents whose expansion failed
	Failed int

	// Objects is the number of top-level expanded objects
	Objects int

	// Nodes is the number of node objects at any depth
	Nodes int

	// Failures maps document index to its error
	Failures map[int]error

	// ProcessingErrors are framing errors that ended the stream early
	ProcessingErrors []error
}

// HasErrors returns true if any document failed or the stream was cut short.
func (s *Summary) HasErrors() bool {
	return s.Failed > 0 || len(s.ProcessingErrors) > 0
}

// String returns a human-readable summary of the expansion.
func (s *Summary) String() string {
	return fmt.Sprintf(
		"Expanded %d documents: %d failed, %d objects, %d nodes",
		s.Total,
		s.Failed,
		s.Objects,
		s.Nodes,
	)
}
