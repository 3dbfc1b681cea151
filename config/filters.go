package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Bounds are the optional numeric constraints on one offer field.
// All of them are inclusive.
type Bounds struct {
	Eq  *float64
	Min *float64
	Max *float64
}

// FieldBounds ties Bounds to the config field name they were declared under
// (rent, total_rent, floor, size).
type FieldBounds struct {
	Field string
	Bounds
}

// FilterConfig is the declarative filter section of a target. Field names
// are kept as written; services.BuildFilters rejects unknown ones.
type FilterConfig struct {
	Complexes []string
	Fields    []FieldBounds
}

// UnmarshalYAML keeps numeric fields in declaration order so predicates are
// built and logged deterministically.
func (f *FilterConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("filters: line %d: expected a mapping", value.Line)
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]

		if key.Value == "complexes" {
			if err := val.Decode(&f.Complexes); err != nil {
				return fmt.Errorf("filters: complexes: %w", err)
			}
			continue
		}

		b, err := decodeBounds(val)
		if err != nil {
			return fmt.Errorf("filters: %s: %w", key.Value, err)
		}
		f.Fields = append(f.Fields, FieldBounds{Field: key.Value, Bounds: b})
	}
	return nil
}

func decodeBounds(node *yaml.Node) (Bounds, error) {
	var b Bounds
	if node.Kind != yaml.MappingNode {
		return b, fmt.Errorf("line %d: expected eq/min/max mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		var v float64
		if err := val.Decode(&v); err != nil {
			return b, fmt.Errorf("%s: %w", key.Value, err)
		}

		switch key.Value {
		case "eq":
			b.Eq = &v
		case "min":
			b.Min = &v
		case "max":
			b.Max = &v
		default:
			return b, fmt.Errorf("line %d: unknown bound %q", key.Line, key.Value)
		}
	}
	return b, nil
}
