package jsonld

// State is a stage of a single expansion.
//
//	Idle → Walking → {Walking | LiteralEmit | LoaderWait} → … → Done | Failed
type State int

// Expansion states.
const (
	StateIdle State = iota
	StateWalking
	StateLiteralEmit
	StateLoaderWait
	StateDone
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWalking:
		return "walking"
	case StateLiteralEmit:
		return "literal-emit"
	case StateLoaderWait:
		return "loader-wait"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can follow.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// StateObserver is called on every state transition. detail names the node
// path, literal or URL involved. Observers run on the expanding goroutine
// and must not block.
type StateObserver func(from, to State, detail string)
