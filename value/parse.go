package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// ErrSyntax is returned when input cannot be decoded.
var ErrSyntax = errors.New("syntax error")

// MaxNesting bounds how deeply arrays and objects may nest in parsed input.
const MaxNesting = 512

// Parse decodes a JSON document into a Value.
// Object members are returned in document order and duplicate keys are kept.
//
// Input must be valid RFC 8259 JSON. Lone UTF-16 surrogate escapes decode to
// U+FFFD, as encoding/json does.
func Parse(data []byte) (Value, error) {
	if !json.Valid(data) {
		return Value{}, syntaxError(data)
	}
	data = replaceLoneSurrogates(data)

	raw, typ, end, err := jsonparser.Get(data)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if rest := bytes.TrimSpace(data[end:]); len(rest) > 0 {
		return Value{}, fmt.Errorf("%w: unexpected data after top-level value at offset %d", ErrSyntax, end)
	}
	return decode(raw, typ, 0)
}

func decode(raw []byte, typ jsonparser.ValueType, depth int) (Value, error) {
	if depth > MaxNesting {
		return Value{}, fmt.Errorf("%w: nesting exceeds %d levels", ErrSyntax, MaxNesting)
	}

	switch typ {
	case jsonparser.Null:
		return Null(), nil

	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return Bool(b), nil

	case jsonparser.Number:
		if !validNumber(raw) {
			return Value{}, fmt.Errorf("%w: invalid number %q", ErrSyntax, raw)
		}
		return Number(string(raw)), nil

	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return String(s), nil

	case jsonparser.Array:
		items := make([]Value, 0)
		var itemErr error
		_, err := jsonparser.ArrayEach(raw, func(data []byte, dataType jsonparser.ValueType, _ int, err error) {
			if itemErr != nil {
				return
			}
			if err != nil {
				itemErr = err
				return
			}
			item, err := decode(data, dataType, depth+1)
			if err != nil {
				itemErr = err
				return
			}
			items = append(items, item)
		})
		if itemErr != nil {
			return Value{}, wrapSyntax(itemErr)
		}
		if err != nil {
			return Value{}, wrapSyntax(err)
		}
		return Array(items...), nil

	case jsonparser.Object:
		members := make([]Member, 0)
		err := jsonparser.ObjectEach(raw, func(key, data []byte, dataType jsonparser.ValueType, _ int) error {
			// keys arrive unescaped in a reused buffer
			k := string(key)
			item, err := decode(data, dataType, depth+1)
			if err != nil {
				return err
			}
			members = append(members, Member{Key: k, Value: item})
			return nil
		})
		if err != nil {
			return Value{}, wrapSyntax(err)
		}
		return Object(members...), nil

	default:
		return Value{}, fmt.Errorf("%w: unknown value type %s", ErrSyntax, typ)
	}
}

// syntaxError reports where data stops being valid JSON.
func syntaxError(data []byte) error {
	var v any
	err := json.Unmarshal(data, &v)
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return fmt.Errorf("%w: %s at offset %d", ErrSyntax, se.Error(), se.Offset)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return fmt.Errorf("%w: invalid JSON", ErrSyntax)
}

// validNumber checks b against the RFC 8259 number grammar:
// -? (0 | [1-9][0-9]*) (. [0-9]+)? ([eE] [+-]? [0-9]+)?
func validNumber(b []byte) bool {
	i := 0
	if i < len(b) && b[i] == '-' {
		i++
	}
	switch {
	case i < len(b) && b[i] == '0':
		i++
	case i < len(b) && '1' <= b[i] && b[i] <= '9':
		for i < len(b) && isDigit(b[i]) {
			i++
		}
	default:
		return false
	}
	if i < len(b) && b[i] == '.' {
		i++
		start := i
		for i < len(b) && isDigit(b[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	if i < len(b) && (b[i] == 'e' || b[i] == 'E') {
		i++
		if i < len(b) && (b[i] == '+' || b[i] == '-') {
			i++
		}
		start := i
		for i < len(b) && isDigit(b[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == len(b)
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

// replaceLoneSurrogates rewrites \uXXXX escapes of unpaired UTF-16
// surrogates to \ufffd. The escape keeps its length, so offsets into data
// stay valid. data must already be valid JSON, which puts every backslash
// inside a string. data is copied before the first rewrite.
func replaceLoneSurrogates(data []byte) []byte {
	out := data
	copied := false
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' {
			continue
		}
		if data[i+1] != 'u' {
			i++
			continue
		}
		r := hex4(data[i+2 : i+6])
		switch {
		case r >= 0xD800 && r < 0xDC00 && i+12 <= len(data) && data[i+6] == '\\' && data[i+7] == 'u':
			if lo := hex4(data[i+8 : i+12]); lo >= 0xDC00 && lo < 0xE000 {
				i += 11
				continue
			}
		case r < 0xD800 || r >= 0xE000:
			i += 5
			continue
		}
		if !copied {
			out = bytes.Clone(data)
			copied = true
		}
		copy(out[i+2:i+6], "fffd")
		i += 5
	}
	return out
}

// hex4 decodes four hex digits already checked by json.Valid.
func hex4(b []byte) rune {
	var r rune
	for _, c := range b {
		r <<= 4
		switch {
		case '0' <= c && c <= '9':
			r |= rune(c - '0')
		case 'a' <= c && c <= 'f':
			r |= rune(c - 'a' + 10)
		default:
			r |= rune(c - 'A' + 10)
		}
	}
	return r
}

func wrapSyntax(err error) error {
	if errors.Is(err, ErrSyntax) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrSyntax, err)
}

// Decode parses data as JSON, falling back to YAML for input that does not
// start like a JSON object or array.
func Decode(data []byte) (Value, error) {
	v, err := Parse(data)
	if err == nil {
		return v, nil
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return Value{}, err
	}
	return ParseYAML(data)
}
