package jsonld

import (
	"fmt"
	"strings"
)

// ErrorCode classifies an expansion failure.
// The values follow the JSON-LD error code vocabulary where one exists.
type ErrorCode string

const (
	// CodeContextLoadFailed indicates the Loader could not provide a remote context.
	CodeContextLoadFailed ErrorCode = "loading remote context failed"
	// CodeInvalidIdentifier indicates an @id, @type or IRI mapping is not a valid identifier.
	CodeInvalidIdentifier ErrorCode = "invalid identifier"
	// CodeCancelled indicates the caller's context was cancelled.
	CodeCancelled ErrorCode = "expansion cancelled"
	// CodeInvalidLocalContext indicates an @context value of the wrong shape.
	CodeInvalidLocalContext ErrorCode = "invalid local context"
	// CodeInvalidTermDefinition indicates a malformed term definition.
	CodeInvalidTermDefinition ErrorCode = "invalid term definition"
	// CodeCyclicTermDefinition indicates terms whose IRI mappings depend on each other.
	CodeCyclicTermDefinition ErrorCode = "cyclic IRI mapping"
	// CodeContextOverflow indicates too many (or recursive) remote context inclusions.
	CodeContextOverflow ErrorCode = "context overflow"
	// CodeInvalidValueObject indicates a malformed @value object.
	CodeInvalidValueObject ErrorCode = "invalid value object"
	// CodeProcessingModeConflict indicates a 1.1 context processed in 1.0 mode.
	CodeProcessingModeConflict ErrorCode = "processing mode conflict"
	// CodeUnsupportedFeature indicates a JSON-LD feature outside this implementation.
	CodeUnsupportedFeature ErrorCode = "unsupported feature"
	// CodeMaxDepthExceeded indicates the document nests deeper than Options.MaxDepth.
	CodeMaxDepthExceeded ErrorCode = "maximum depth exceeded"
	// CodeInvalidInput indicates the document could not be decoded.
	CodeInvalidInput ErrorCode = "invalid input"
	// CodeUnresolvedTerm indicates a dropped term while Options.Strict is set.
	CodeUnresolvedTerm ErrorCode = "unresolved term"
	// CodeCollidingKeywords indicates a keyword given twice through aliases.
	CodeCollidingKeywords ErrorCode = "colliding keywords"
	// CodeInvalidSetOrList indicates an @set or @list object with other entries.
	CodeInvalidSetOrList ErrorCode = "invalid set or list object"
)

// Sentinel errors for errors.Is matching by code.
var (
	ErrContextLoadFailed      = &Error{Code: CodeContextLoadFailed}
	ErrInvalidIdentifier      = &Error{Code: CodeInvalidIdentifier}
	ErrCancelled              = &Error{Code: CodeCancelled}
	ErrInvalidLocalContext    = &Error{Code: CodeInvalidLocalContext}
	ErrInvalidTermDefinition  = &Error{Code: CodeInvalidTermDefinition}
	ErrCyclicTermDefinition   = &Error{Code: CodeCyclicTermDefinition}
	ErrContextOverflow        = &Error{Code: CodeContextOverflow}
	ErrInvalidValueObject     = &Error{Code: CodeInvalidValueObject}
	ErrProcessingModeConflict = &Error{Code: CodeProcessingModeConflict}
	ErrUnsupportedFeature     = &Error{Code: CodeUnsupportedFeature}
	ErrMaxDepthExceeded       = &Error{Code: CodeMaxDepthExceeded}
	ErrInvalidInput           = &Error{Code: CodeInvalidInput}
	ErrUnresolvedTerm         = &Error{Code: CodeUnresolvedTerm}
	ErrCollidingKeywords      = &Error{Code: CodeCollidingKeywords}
	ErrInvalidSetOrList       = &Error{Code: CodeInvalidSetOrList}
)

// Error is the single error type surfaced by expansion.
type Error struct {
	// Code classifies the failure.
	Code ErrorCode

	// Message carries human-readable details.
	Message string

	// URL is the remote context involved, if any.
	URL string

	// Path is a JSON pointer to the offending location in the input.
	Path string

	// Err is the underlying cause.
	Err error
}

// NewError creates an Error with a formatted message.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error with the given cause.
func Wrap(code ErrorCode, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// ContextLoadFailed creates the error reported when the Loader fails for url.
func ContextLoadFailed(url string, cause error) *Error {
	return &Error{Code: CodeContextLoadFailed, URL: url, Err: cause}
}

// Cancelled creates the error reported when ctx is done.
func Cancelled(cause error) *Error {
	return &Error{Code: CodeCancelled, Err: cause}
}

// WithPath returns a copy of e located at path. An existing path is kept,
// since the innermost location is the most precise one.
func (e *Error) WithPath(path string) *Error {
	if e.Path != "" || path == "" {
		return e
	}
	c := *e
	c.Path = path
	return &c
}

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.URL != "" {
		b.WriteString(" <")
		b.WriteString(e.URL)
		b.WriteString(">")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code. A target carrying a message
// or URL must match those too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	if t.Message != "" && t.Message != e.Message {
		return false
	}
	if t.URL != "" && t.URL != e.URL {
		return false
	}
	return true
}
