package engine

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	ld "github.com/gofhir/jsonld"
	"github.com/gofhir/jsonld/pkg/logger"
)

// tracker follows the state machine of one expansion and reports every
// transition to the observer, the debug log and the span.
type tracker struct {
	state    ld.State
	detail   string
	observer ld.StateObserver
	log      *logger.Logger
	span     trace.Span
}

func newTracker(observer ld.StateObserver, log *logger.Logger, span trace.Span) *tracker {
	return &tracker{state: ld.StateIdle, observer: observer, log: log, span: span}
}

// notify handles a state reported by the walker or a loader hook. Literal
// emission and loader waits are entered from Walking only.
func (t *tracker) notify(state ld.State, detail string) {
	if state != ld.StateWalking && t.state != ld.StateWalking {
		t.to(ld.StateWalking, detail)
	}
	t.to(state, detail)
}

// to moves to next. Repeating the current state at the same location is
// not a transition.
func (t *tracker) to(next ld.State, detail string) {
	if t.state.Terminal() || (next == t.state && detail == t.detail) {
		return
	}
	from := t.state
	t.state, t.detail = next, detail

	if t.observer != nil {
		t.observer(from, next, detail)
	}
	if t.log.Enabled(logger.LevelDebug) {
		t.log.Debug("state", "from", from, "to", next, "detail", detail)
	}
	if t.span.IsRecording() {
		t.span.AddEvent(next.String(), trace.WithAttributes(
			attribute.String("jsonld.state.from", from.String()),
			attribute.String("jsonld.state.detail", detail),
		))
	}
}
