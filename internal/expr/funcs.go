package expr

import (
	"fmt"
	"math"

	"github.com/maksv/neurite/internal/units"
)

// builtin is a function callable from equation expressions.
type builtin struct {
	arity int
	impl  func(args []units.Quantity) (units.Quantity, error)
}

// dimensionless wraps a plain math function: the argument must be
// dimensionless and so is the result. Transcendental functions have no
// meaningful dimension semantics.
func dimensionless(f func(float64) float64) builtin {
	return builtin{
		arity: 1,
		impl: func(args []units.Quantity) (units.Quantity, error) {
			if !args[0].Dim.IsDimensionless() {
				return units.Quantity{}, fmt.Errorf("argument must be dimensionless, got %s", args[0].Dim)
			}
			return units.Scalar(f(args[0].Value)), nil
		},
	}
}

// preserving wraps a math function whose result keeps the argument's
// dimension.
func preserving(f func(float64) float64) builtin {
	return builtin{
		arity: 1,
		impl: func(args []units.Quantity) (units.Quantity, error) {
			return units.New(f(args[0].Value), args[0].Dim), nil
		},
	}
}

// builtins is the fixed table of functions available in equations. HCL's
// expression grammar has no exponentiation operator, so powers and roots are
// spelled pow(x, n) and sqrt(x).
var builtins = map[string]builtin{
	"exp":   dimensionless(math.Exp),
	"log":   dimensionless(math.Log),
	"log10": dimensionless(math.Log10),
	"sin":   dimensionless(math.Sin),
	"cos":   dimensionless(math.Cos),
	"tan":   dimensionless(math.Tan),
	"asin":  dimensionless(math.Asin),
	"acos":  dimensionless(math.Acos),
	"atan":  dimensionless(math.Atan),
	"sinh":  dimensionless(math.Sinh),
	"cosh":  dimensionless(math.Cosh),
	"tanh":  dimensionless(math.Tanh),

	"abs":   preserving(math.Abs),
	"floor": preserving(math.Floor),
	"ceil":  preserving(math.Ceil),

	"sign": {
		arity: 1,
		impl: func(args []units.Quantity) (units.Quantity, error) {
			switch {
			case args[0].Value > 0:
				return units.Scalar(1), nil
			case args[0].Value < 0:
				return units.Scalar(-1), nil
			default:
				return units.Scalar(0), nil
			}
		},
	},

	"sqrt": {
		arity: 1,
		impl: func(args []units.Quantity) (units.Quantity, error) {
			return args[0].Pow(0.5)
		},
	},

	"pow": {
		arity: 2,
		impl: func(args []units.Quantity) (units.Quantity, error) {
			if !args[1].Dim.IsDimensionless() {
				return units.Quantity{}, fmt.Errorf("exponent must be dimensionless, got %s", args[1].Dim)
			}
			return args[0].Pow(args[1].Value)
		},
	},

	"clip": {
		arity: 3,
		impl: func(args []units.Quantity) (units.Quantity, error) {
			x, lo, hi := args[0], args[1], args[2]
			if x.Dim != lo.Dim || x.Dim != hi.Dim {
				return units.Quantity{}, &units.MismatchError{Op: "clip", Left: x.Dim, Right: lo.Dim}
			}
			v := math.Min(math.Max(x.Value, lo.Value), hi.Value)
			return units.New(v, x.Dim), nil
		},
	},
}
