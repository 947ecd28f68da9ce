package jsonld

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks expansion metrics using lock-free atomic operations.
// All methods are safe for concurrent use.
type Metrics struct {
	// Expansion counts
	expansionsTotal  atomic.Uint64
	expansionsFailed atomic.Uint64

	// Timing (stored as nanoseconds)
	expansionTimeTotal atomic.Uint64
	expansionTimeMin   atomic.Uint64
	expansionTimeMax   atomic.Uint64

	// Loader metrics
	loads        atomic.Uint64
	loadFailures atomic.Uint64

	// Processed-context cache metrics
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64

	// Output shape
	nodesBuilt    atomic.Uint64
	droppedTerms  atomic.Uint64
	droppedValues atomic.Uint64

	// Failures by code
	errorsByCode sync.Map // map[ErrorCode]*atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so first value becomes the minimum
	m.expansionTimeMin.Store(^uint64(0))
	return m
}

// --- Recording Methods ---

// RecordExpansion records a finished expansion.
func (m *Metrics) RecordExpansion(duration time.Duration, err error) {
	m.expansionsTotal.Add(1)
	if err != nil {
		m.expansionsFailed.Add(1)
		var e *Error
		if errors.As(err, &e) {
			m.counterFor(e.Code).Add(1)
		}
	}

	ns := uint64(duration.Nanoseconds()) //nolint:gosec // durations measured with time.Since are non-negative
	m.expansionTimeTotal.Add(ns)

	for {
		old := m.expansionTimeMin.Load()
		if ns >= old || m.expansionTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.expansionTimeMax.Load()
		if ns <= old || m.expansionTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordLoad records a Loader call.
func (m *Metrics) RecordLoad(ok bool) {
	m.loads.Add(1)
	if !ok {
		m.loadFailures.Add(1)
	}
}

// RecordCacheHit records a processed-context cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a processed-context cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// RecordNodes records expanded node objects.
func (m *Metrics) RecordNodes(n int) {
	if n > 0 {
		m.nodesBuilt.Add(uint64(n))
	}
}

// RecordDroppedTerm records a property key that did not resolve.
func (m *Metrics) RecordDroppedTerm() {
	m.droppedTerms.Add(1)
}

// RecordDroppedValue records a null or non-informative value.
func (m *Metrics) RecordDroppedValue() {
	m.droppedValues.Add(1)
}

func (m *Metrics) counterFor(code ErrorCode) *atomic.Uint64 {
	if v, ok := m.errorsByCode.Load(code); ok {
		return v.(*atomic.Uint64)
	}
	actual, _ := m.errorsByCode.LoadOrStore(code, &atomic.Uint64{})
	return actual.(*atomic.Uint64)
}

// --- Query Methods ---

// ExpansionsTotal returns the number of expansions performed.
func (m *Metrics) ExpansionsTotal() uint64 {
	return m.expansionsTotal.Load()
}

// ExpansionsFailed returns the number of expansions that returned an error.
func (m *Metrics) ExpansionsFailed() uint64 {
	return m.expansionsFailed.Load()
}

// AverageExpansionTime returns the mean expansion duration.
func (m *Metrics) AverageExpansionTime() time.Duration {
	total := m.expansionsTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.expansionTimeTotal.Load() / total) //nolint:gosec // nanoseconds within int64 range
}

// MinExpansionTime returns the shortest expansion duration.
func (m *Metrics) MinExpansionTime() time.Duration {
	v := m.expansionTimeMin.Load()
	if v == ^uint64(0) {
		return 0
	}
	return time.Duration(v) //nolint:gosec // nanoseconds within int64 range
}

// MaxExpansionTime returns the longest expansion duration.
func (m *Metrics) MaxExpansionTime() time.Duration {
	return time.Duration(m.expansionTimeMax.Load()) //nolint:gosec // nanoseconds within int64 range
}

// Loads returns the number of Loader calls.
func (m *Metrics) Loads() uint64 {
	return m.loads.Load()
}

// LoadFailures returns the number of failed Loader calls.
func (m *Metrics) LoadFailures() uint64 {
	return m.loadFailures.Load()
}

// CacheHitRate returns the processed-context cache hit rate (0.0 to 1.0).
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// NodesBuilt returns the number of node objects produced.
func (m *Metrics) NodesBuilt() uint64 {
	return m.nodesBuilt.Load()
}

// DroppedTerms returns the number of unresolved property keys dropped.
func (m *Metrics) DroppedTerms() uint64 {
	return m.droppedTerms.Load()
}

// DroppedValues returns the number of null or empty values dropped.
func (m *Metrics) DroppedValues() uint64 {
	return m.droppedValues.Load()
}

// ErrorCount returns the number of failures with the given code.
func (m *Metrics) ErrorCount(code ErrorCode) uint64 {
	v, ok := m.errorsByCode.Load(code)
	if !ok {
		return 0
	}
	return v.(*atomic.Uint64).Load()
}

// --- Export Methods ---

// CodeCount is the number of failures for one error code.
type CodeCount struct {
	Code  ErrorCode `json:"code"`
	Count uint64    `json:"count"`
}

// Snapshot represents a point-in-time snapshot of all metrics.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	ExpansionsTotal  uint64 `json:"expansions_total"`
	ExpansionsFailed uint64 `json:"expansions_failed"`

	AvgExpansionTimeNs uint64 `json:"avg_expansion_time_ns"`
	MinExpansionTimeNs uint64 `json:"min_expansion_time_ns"`
	MaxExpansionTimeNs uint64 `json:"max_expansion_time_ns"`

	Loads        uint64 `json:"loads"`
	LoadFailures uint64 `json:"load_failures"`

	CacheHits    uint64  `json:"cache_hits"`
	CacheMisses  uint64  `json:"cache_misses"`
	CacheHitRate float64 `json:"cache_hit_rate"`

	NodesBuilt    uint64 `json:"nodes_built"`
	DroppedTerms  uint64 `json:"dropped_terms"`
	DroppedValues uint64 `json:"dropped_values"`

	Errors []CodeCount `json:"errors,omitempty"`
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Timestamp:          time.Now(),
		ExpansionsTotal:    m.expansionsTotal.Load(),
		ExpansionsFailed:   m.expansionsFailed.Load(),
		MinExpansionTimeNs: uint64(m.MinExpansionTime()), //nolint:gosec // non-negative
		MaxExpansionTimeNs: m.expansionTimeMax.Load(),
		Loads:              m.loads.Load(),
		LoadFailures:       m.loadFailures.Load(),
		CacheHits:          m.cacheHits.Load(),
		CacheMisses:        m.cacheMisses.Load(),
		CacheHitRate:       m.CacheHitRate(),
		NodesBuilt:         m.nodesBuilt.Load(),
		DroppedTerms:       m.droppedTerms.Load(),
		DroppedValues:      m.droppedValues.Load(),
	}
	if s.ExpansionsTotal > 0 {
		s.AvgExpansionTimeNs = m.expansionTimeTotal.Load() / s.ExpansionsTotal
	}

	m.errorsByCode.Range(func(key, value any) bool {
		s.Errors = append(s.Errors, CodeCount{
			Code:  key.(ErrorCode),
			Count: value.(*atomic.Uint64).Load(),
		})
		return true
	})
	sort.Slice(s.Errors, func(i, j int) bool { return s.Errors[i].Code < s.Errors[j].Code })

	return s
}

// Export returns metrics as a flat map suitable for external systems.
func (m *Metrics) Export() map[string]any {
	s := m.Snapshot()
	out := map[string]any{
		"expansions_total":      s.ExpansionsTotal,
		"expansions_failed":     s.ExpansionsFailed,
		"avg_expansion_time_ns": s.AvgExpansionTimeNs,
		"min_expansion_time_ns": s.MinExpansionTimeNs,
		"max_expansion_time_ns": s.MaxExpansionTimeNs,
		"loads":                 s.Loads,
		"load_failures":         s.LoadFailures,
		"cache_hits":            s.CacheHits,
		"cache_misses":          s.CacheMisses,
		"cache_hit_rate":        s.CacheHitRate,
		"nodes_built":           s.NodesBuilt,
		"dropped_terms":         s.DroppedTerms,
		"dropped_values":        s.DroppedValues,
	}
	for _, c := range s.Errors {
		out["errors{"+string(c.Code)+"}"] = c.Count
	}
	return out
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.expansionsTotal.Store(0)
	m.expansionsFailed.Store(0)
	m.expansionTimeTotal.Store(0)
	m.expansionTimeMin.Store(^uint64(0))
	m.expansionTimeMax.Store(0)
	m.loads.Store(0)
	m.loadFailures.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.nodesBuilt.Store(0)
	m.droppedTerms.Store(0)
	m.droppedValues.Store(0)

	m.errorsByCode.Range(func(key, _ any) bool {
		m.errorsByCode.Delete(key)
		return true
	})
}
