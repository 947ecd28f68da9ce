package value

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a YAML document into a Value.
// Mapping order is preserved. Aliases are expanded; non-core scalar tags
// (timestamps, binary) are kept as strings.
func ParseYAML(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if doc.Kind == 0 {
		return Value{}, fmt.Errorf("%w: empty YAML document", ErrSyntax)
	}
	return fromYAML(&doc, 0)
}

func fromYAML(n *yaml.Node, depth int) (Value, error) {
	if depth > MaxNesting {
		return Value{}, fmt.Errorf("%w: nesting exceeds %d levels", ErrSyntax, MaxNesting)
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return fromYAML(n.Content[0], depth)

	case yaml.AliasNode:
		return fromYAML(n.Alias, depth+1)

	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			item, err := fromYAML(c, depth+1)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Array(items...), nil

	case yaml.MappingNode:
		members := make([]Member, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return Value{}, fmt.Errorf("%w: line %d: mapping keys must be scalars", ErrSyntax, k.Line)
			}
			item, err := fromYAML(n.Content[i+1], depth+1)
			if err != nil {
				return Value{}, err
			}
			members = append(members, Member{Key: k.Value, Value: item})
		}
		return Object(members...), nil

	case yaml.ScalarNode:
		return yamlScalar(n)
	}
	return Value{}, fmt.Errorf("%w: line %d: unsupported YAML node", ErrSyntax, n.Line)
}

func yamlScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, fmt.Errorf("%w: line %d: %v", ErrSyntax, n.Line, err)
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return Value{}, fmt.Errorf("%w: line %d: %v", ErrSyntax, n.Line, err)
		}
		return Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, fmt.Errorf("%w: line %d: %v", ErrSyntax, n.Line, err)
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return Value{}, fmt.Errorf("%w: line %d: %s is not representable in JSON", ErrSyntax, n.Line, n.Value)
		}
		return Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
	default:
		return String(n.Value), nil
	}
}
