// Package bindings loads externally supplied quantity bindings from YAML.
// A bindings file maps identifier names to values: a number is taken as a
// dimensionless quantity, a string is evaluated as a quantity expression
// against the unit library, so "20 * ms" and "-60 * mV" work as expected.
package bindings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/maksv/neurite/internal/expr"
	"github.com/maksv/neurite/internal/units"
)

// Load reads a YAML bindings file into a scope usable for implicit
// namespace resolution.
func Load(path string) (units.Scope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bindings file: %w", err)
	}
	scope, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("bindings file %s: %w", path, err)
	}
	return scope, nil
}

// Parse decodes YAML bindings from memory.
func Parse(data []byte) (units.Scope, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}

	scope := make(units.Scope, len(raw))
	for name, value := range raw {
		q, err := toQuantity(value)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", name, err)
		}
		scope[name] = q
	}
	return scope, nil
}

func toQuantity(value any) (units.Quantity, error) {
	switch v := value.(type) {
	case int:
		return units.Scalar(float64(v)), nil
	case float64:
		return units.Scalar(v), nil
	case bool:
		if v {
			return units.Scalar(1), nil
		}
		return units.Scalar(0), nil
	case string:
		e, err := expr.Parse(v, v)
		if err != nil {
			return units.Quantity{}, err
		}
		return e.Eval(units.Library().Lookup)
	default:
		return units.Quantity{}, fmt.Errorf("unsupported value type %T", value)
	}
}
