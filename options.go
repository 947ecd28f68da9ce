package jsonld

import (
	"runtime"

	"go.opentelemetry.io/otel/trace"

	"github.com/gofhir/jsonld/loader"
	"github.com/gofhir/jsonld/pkg/logger"
	"github.com/gofhir/jsonld/value"
)

// Option configures expansion.
type Option func(*Options)

// Options holds all configuration for expansion.
type Options struct {
	// Loader fetches remote contexts. Defaults to loader.NoLoader, which
	// fails every request.
	Loader loader.Loader

	// Base is the document base IRI used to resolve relative @id values and
	// relative context references. An @base entry in a context overrides it.
	Base string

	// ExpandContext is applied on top of the initial context before the
	// document's own @context. Null means none.
	ExpandContext value.Value

	// ProcessingMode selects JSON-LD 1.0 or 1.1 rules.
	ProcessingMode ProcessingMode

	// Strict turns dropped property terms into ErrUnresolvedTerm failures.
	Strict bool

	// Limits
	MaxDepth          int
	MaxRemoteContexts int

	// Performance
	ContextCacheSize int
	WorkerCount      int

	// Observability
	Observer StateObserver
	Tracer   trace.Tracer
	Logger   *logger.Logger
	Metrics  *Metrics
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		Loader:         loader.NoLoader{},
		ProcessingMode: ProcessingModeJSONLD11,

		MaxDepth:          256,
		MaxRemoteContexts: 32,

		ContextCacheSize: 128,
		WorkerCount:      runtime.NumCPU(),
	}
}

// Apply returns DefaultOptions with opts applied in order.
func Apply(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// --- Expansion Options ---

// WithLoader sets the remote context loader. A nil loader restores NoLoader.
func WithLoader(l loader.Loader) Option {
	return func(o *Options) {
		if l == nil {
			l = loader.NoLoader{}
		}
		o.Loader = l
	}
}

// WithBase sets the document base IRI.
func WithBase(base string) Option {
	return func(o *Options) {
		o.Base = base
	}
}

// WithExpandContext sets a context applied before the document's own.
func WithExpandContext(ctx value.Value) Option {
	return func(o *Options) {
		o.ExpandContext = ctx
	}
}

// WithProcessingMode selects the JSON-LD processing mode.
func WithProcessingMode(mode ProcessingMode) Option {
	return func(o *Options) {
		if mode.IsValid() {
			o.ProcessingMode = mode
		}
	}
}

// WithStrict makes unresolved property terms fail the expansion.
func WithStrict(enable bool) Option {
	return func(o *Options) {
		o.Strict = enable
	}
}

// --- Limit Options ---

// WithMaxDepth bounds the nesting depth of expanded documents.
func WithMaxDepth(depth int) Option {
	return func(o *Options) {
		if depth > 0 {
			o.MaxDepth = depth
		}
	}
}

// WithMaxRemoteContexts bounds the number of remote contexts one expansion
// may load. Recursive inclusion is rejected regardless of this limit.
func WithMaxRemoteContexts(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxRemoteContexts = n
		}
	}
}

// --- Performance Options ---

// WithContextCacheSize sets how many processed remote contexts are memoised.
func WithContextCacheSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.ContextCacheSize = size
		}
	}
}

// WithWorkerCount sets the number of workers for batch expansion.
// Defaults to runtime.NumCPU().
func WithWorkerCount(count int) Option {
	return func(o *Options) {
		if count > 0 {
			o.WorkerCount = count
		}
	}
}

// --- Observability Options ---

// WithStateObserver receives every expansion state transition.
func WithStateObserver(fn StateObserver) Option {
	return func(o *Options) {
		o.Observer = fn
	}
}

// WithTracer records expansion spans on tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Options) {
		o.Tracer = tracer
	}
}

// WithLogger sets the logger. Defaults to logger.Default().
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMetrics records expansion metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

// --- Presets ---

// StrictOptions returns options that refuse to drop information silently.
func StrictOptions() []Option {
	return []Option{
		WithStrict(true),
		WithProcessingMode(ProcessingModeJSONLD11),
	}
}

// OfflineOptions returns options that never touch the network.
func OfflineOptions() []Option {
	return []Option{
		WithLoader(loader.NoLoader{}),
	}
}
