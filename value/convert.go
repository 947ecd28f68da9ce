package value

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// FromAny converts the output of encoding/json (or hand-built Go data) into
// a Value. Go maps carry no order, so their keys are sorted.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		if _, err := t.Float64(); err != nil {
			return Value{}, fmt.Errorf("%w: invalid number %q", ErrSyntax, t)
		}
		return Number(t.String()), nil
	case float64:
		if math.IsInf(t, 0) || math.IsNaN(t) {
			return Value{}, fmt.Errorf("%w: %v is not representable in JSON", ErrSyntax, t)
		}
		return Float(t), nil
	case float32:
		return FromAny(float64(t))
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Number(strconv.FormatUint(uint64(t), 10)), nil
	case uint64:
		return Number(strconv.FormatUint(t, 10)), nil
	case []any:
		items := make([]Value, 0, len(t))
		for i, e := range t {
			item, err := FromAny(e)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, item)
		}
		return Array(items...), nil
	case []string:
		items := make([]Value, 0, len(t))
		for _, s := range t {
			items = append(items, String(s))
		}
		return Array(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, 0, len(keys))
		for _, k := range keys {
			item, err := FromAny(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			members = append(members, Member{Key: k, Value: item})
		}
		return Object(members...), nil
	default:
		return Value{}, fmt.Errorf("unsupported Go type %T", x)
	}
}

// MustFromAny is FromAny for literals known to be valid. It panics on error.
func MustFromAny(x any) Value {
	v, err := FromAny(x)
	if err != nil {
		panic(err)
	}
	return v
}

// Interface converts v back into plain Go data (map[string]any, []any,
// string, float64, bool, nil). Duplicate object keys keep the last value.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindString:
		return v.s
	case KindNumber:
		f, _ := v.AsFloat()
		return f
	case KindArray:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.membs))
		for _, m := range v.membs {
			out[m.Key] = m.Value.Interface()
		}
		return out
	default:
		return nil
	}
}
