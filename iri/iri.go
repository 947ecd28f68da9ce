// Package iri validates and resolves the identifiers produced by expansion.
//
// Only the checks expansion needs are provided: absolute IRIs (RFC 3987
// with a scheme), blank node labels, compact IRI splitting and reference
// resolution against a base.
package iri

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// ErrNotAbsolute is returned when an identifier has no scheme and is
	// not a blank node label.
	ErrNotAbsolute = errors.New("identifier is not absolute")

	// ErrMalformed is returned when an identifier contains characters or
	// escapes that are not allowed in an IRI.
	ErrMalformed = errors.New("malformed identifier")
)

// BlankPrefix starts every blank node label.
const BlankPrefix = "_:"

var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*:`)

// IsAbsolute reports whether s starts with a valid scheme and contains no
// whitespace.
func IsAbsolute(s string) bool {
	if !schemePattern.MatchString(s) {
		return false
	}
	return !strings.ContainsAny(s, " \t\r\n")
}

// IsBlank reports whether s is a blank node label such as "_:b0".
func IsBlank(s string) bool {
	return len(s) > len(BlankPrefix) && strings.HasPrefix(s, BlankPrefix)
}

// Validate checks that s is a well-formed absolute IRI or blank node label
// and returns it unchanged.
func Validate(s string) (string, error) {
	if IsBlank(s) {
		if strings.ContainsAny(s, " \t\r\n") {
			return "", fmt.Errorf("%w: blank node label %q contains whitespace", ErrMalformed, s)
		}
		return s, nil
	}
	if !IsAbsolute(s) {
		return "", fmt.Errorf("%w: %q", ErrNotAbsolute, s)
	}
	if err := checkChars(s); err != nil {
		return "", err
	}
	if _, err := url.Parse(s); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrMalformed, s, err)
	}
	return s, nil
}

// checkChars rejects characters excluded from IRIs and broken percent escapes.
func checkChars(s string) error {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c < 0x20 || c == 0x7f:
			return fmt.Errorf("%w: %q contains a control character", ErrMalformed, s)
		case strings.IndexByte(`<>"{}|\^`+"`", c) >= 0:
			return fmt.Errorf("%w: %q contains %q", ErrMalformed, s, c)
		case c == '%':
			if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
				return fmt.Errorf("%w: %q has an invalid percent escape", ErrMalformed, s)
			}
		}
	}
	return nil
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// SplitCompact splits a compact IRI "prefix:suffix". It reports false when s
// has no colon, starts with one, or the suffix begins with "//" (an absolute
// IRI with authority, which is never a compact IRI).
func SplitCompact(s string) (prefix, suffix string, ok bool) {
	idx := strings.IndexByte(s, ':')
	if idx <= 0 {
		return "", "", false
	}
	prefix, suffix = s[:idx], s[idx+1:]
	if strings.HasPrefix(suffix, "//") {
		return "", "", false
	}
	return prefix, suffix, true
}

// Resolve resolves ref against base following RFC 3986 section 5.
// An absolute ref or a blank node label is returned unchanged; an empty base
// leaves a relative ref unresolved and reports ErrNotAbsolute.
func Resolve(base, ref string) (string, error) {
	if IsAbsolute(ref) || IsBlank(ref) {
		return ref, nil
	}
	if base == "" {
		return "", fmt.Errorf("%w: %q has no base to resolve against", ErrNotAbsolute, ref)
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: base %q: %v", ErrMalformed, base, err)
	}
	if !b.IsAbs() {
		return "", fmt.Errorf("%w: base %q", ErrNotAbsolute, base)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrMalformed, ref, err)
	}
	return b.ResolveReference(r).String(), nil
}
