// Package location provides utilities to find line and column positions
// in JSON source for JSON pointers, such as the Path of an expansion error.
package location

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	ld "github.com/gofhir/jsonld"
)

// Location represents a position in the source JSON.
type Location struct {
	Line   int
	Column int
}

// String formats the location as "line L, column C".
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	return fmt.Sprintf("line %d, column %d", l.Line, l.Column)
}

// Find locates the value addressed by a JSON pointer in JSON source. For an
// object member it returns the position of the member's key, for an array
// element the position of the element. Returns nil if the pointer cannot be
// resolved.
func Find(jsonData []byte, pointer string) *Location {
	if len(jsonData) == 0 {
		return nil
	}
	tokens, ok := parsePointer(pointer)
	if !ok {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(jsonData))
	offset, err := navigate(dec, tokens)
	if err != nil {
		return nil
	}
	offset = skipSeparators(jsonData, offset)

	line, col := offsetToLineCol(jsonData, offset)
	return &Location{Line: line, Column: col}
}

// Of locates the path of an expansion error in the document it came from.
// Returns nil when err carries no path or the path cannot be resolved.
func Of(jsonData []byte, err error) *Location {
	var e *ld.Error
	if !errors.As(err, &e) || e.Path == "" {
		return nil
	}
	return Find(jsonData, e.Path)
}

// parsePointer splits an RFC 6901 pointer into unescaped reference tokens.
// Examples:
//   - "" -> []
//   - "/knows/0/name" -> ["knows", "0", "name"]
//   - "/a~1b/m~0n" -> ["a/b", "m~n"]
func parsePointer(pointer string) ([]string, bool) {
	if pointer == "" {
		return nil, true
	}
	if pointer[0] != '/' {
		return nil, false
	}
	parts := strings.Split(pointer[1:], "/")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(strings.ReplaceAll(p, "~1", "/"), "~0", "~")
	}
	return parts, true
}

// navigate walks dec down tokens and returns the input offset just before
// the addressed key or element.
func navigate(dec *json.Decoder, tokens []string) (int, error) {
	offset := int(dec.InputOffset())

	for _, target := range tokens {
		tok, err := dec.Token()
		if err != nil {
			return 0, err
		}
		delim, ok := tok.(json.Delim)
		if !ok {
			return 0, fmt.Errorf("cannot descend into %v", tok)
		}

		switch delim {
		case '{':
			offset, err = navigateToKey(dec, target)
		case '[':
			idx, convErr := strconv.Atoi(target)
			if convErr != nil {
				return 0, fmt.Errorf("invalid array index %q", target)
			}
			offset, err = navigateToArrayIndex(dec, idx)
		default:
			err = fmt.Errorf("unexpected delimiter %v", delim)
		}
		if err != nil {
			return 0, err
		}
	}

	return offset, nil
}

// navigateToKey finds a key in the current JSON object and leaves the
// decoder before its value.
func navigateToKey(dec *json.Decoder, key string) (int, error) {
	for dec.More() {
		offset := int(dec.InputOffset())
		tok, err := dec.Token()
		if err != nil {
			return 0, err
		}
		if k, ok := tok.(string); ok && k == key {
			return offset, nil
		}
		if err := skipValue(dec); err != nil {
			return 0, err
		}
	}
	return 0, fmt.Errorf("key %q not found in object", key)
}

// navigateToArrayIndex finds an element in the current JSON array and leaves
// the decoder before it.
func navigateToArrayIndex(dec *json.Decoder, targetIdx int) (int, error) {
	idx := 0
	for dec.More() {
		offset := int(dec.InputOffset())
		if idx == targetIdx {
			return offset, nil
		}
		if err := skipValue(dec); err != nil {
			return 0, err
		}
		idx++
	}
	return 0, fmt.Errorf("array index %d out of bounds (size %d)", targetIdx, idx)
}

// skipValue skips a single JSON value (primitive, object, or array).
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if _, ok := tok.(json.Delim); !ok {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

// skipSeparators advances past whitespace and the ',' and ':' the decoder
// consumes implicitly.
func skipSeparators(input []byte, offset int) int {
	for offset < len(input) {
		switch input[offset] {
		case ' ', '\t', '\r', '\n', ',', ':':
			offset++
		default:
			return offset
		}
	}
	return offset
}

// offsetToLineCol converts a byte offset to line and column numbers.
// Line and column are 1-indexed (human-readable).
func offsetToLineCol(input []byte, offset int) (line, col int) {
	line = 1
	col = 1
	for i := 0; i < offset && i < len(input); i++ {
		if input[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return
}
