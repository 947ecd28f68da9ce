package jsonld

// Version is the library version.
const Version = "0.3.0"

// ProcessingMode selects the JSON-LD rule set.
type ProcessingMode string

// Supported processing modes.
const (
	// ProcessingModeJSONLD10 follows JSON-LD 1.0; @version in a context is an error.
	ProcessingModeJSONLD10 ProcessingMode = "json-ld-1.0"
	// ProcessingModeJSONLD11 follows JSON-LD 1.1.
	ProcessingModeJSONLD11 ProcessingMode = "json-ld-1.1"
)

// String returns the mode name.
func (m ProcessingMode) String() string {
	return string(m)
}

// IsValid returns true if this is a supported processing mode.
func (m ProcessingMode) IsValid() bool {
	switch m {
	case ProcessingModeJSONLD10, ProcessingModeJSONLD11:
		return true
	default:
		return false
	}
}

// Allows11 reports whether 1.1 features (@version, @container: @set on
// terms, language maps) are accepted.
func (m ProcessingMode) Allows11() bool {
	return m != ProcessingModeJSONLD10
}
