// Package units implements dimensional analysis for equation checking: a
// quantity couples a magnitude in SI base units with a physical dimension,
// and arithmetic on quantities enforces dimensional consistency.
package units

import (
	"fmt"
	"math"
	"strconv"
)

// Quantity is a magnitude with a physical dimension. The magnitude is always
// stored in SI base units, so 20 ms carries Value 0.02 and the second
// dimension.
type Quantity struct {
	Value float64
	Dim   Dim
}

// Scalar returns a dimensionless quantity.
func Scalar(v float64) Quantity {
	return Quantity{Value: v}
}

// New returns a quantity of v in the given dimension.
func New(v float64, d Dim) Quantity {
	return Quantity{Value: v, Dim: d}
}

// MismatchError reports an operation between quantities of incompatible
// dimensions.
type MismatchError struct {
	Op          string
	Left, Right Dim
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: cannot %s %s and %s", e.Op, e.Left, e.Right)
}

// Add returns q+o. The operands must share a dimension.
func (q Quantity) Add(o Quantity) (Quantity, error) {
	if q.Dim != o.Dim {
		return Quantity{}, &MismatchError{Op: "add", Left: q.Dim, Right: o.Dim}
	}
	return Quantity{Value: q.Value + o.Value, Dim: q.Dim}, nil
}

// Sub returns q-o. The operands must share a dimension.
func (q Quantity) Sub(o Quantity) (Quantity, error) {
	if q.Dim != o.Dim {
		return Quantity{}, &MismatchError{Op: "subtract", Left: q.Dim, Right: o.Dim}
	}
	return Quantity{Value: q.Value - o.Value, Dim: q.Dim}, nil
}

// Mul returns q*o; dimensions multiply.
func (q Quantity) Mul(o Quantity) Quantity {
	return Quantity{Value: q.Value * o.Value, Dim: q.Dim.Mul(o.Dim)}
}

// Div returns q/o; dimensions divide.
func (q Quantity) Div(o Quantity) Quantity {
	return Quantity{Value: q.Value / o.Value, Dim: q.Dim.Div(o.Dim)}
}

// Mod returns the floating point remainder of q/o. The operands must share a
// dimension and the result keeps it.
func (q Quantity) Mod(o Quantity) (Quantity, error) {
	if q.Dim != o.Dim {
		return Quantity{}, &MismatchError{Op: "take the remainder of", Left: q.Dim, Right: o.Dim}
	}
	return Quantity{Value: math.Mod(q.Value, o.Value), Dim: q.Dim}, nil
}

// Neg returns -q.
func (q Quantity) Neg() Quantity {
	return Quantity{Value: -q.Value, Dim: q.Dim}
}

// Pow raises q to the power n. The exponent is a plain number; the resulting
// dimension exponents must stay on half-integer boundaries.
func (q Quantity) Pow(n float64) (Quantity, error) {
	d, err := q.Dim.Pow(n)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: math.Pow(q.Value, n), Dim: d}, nil
}

// String renders the quantity as its SI magnitude followed by the dimension,
// e.g. "0.02 s". Dimensionless quantities render as the bare number.
func (q Quantity) String() string {
	v := strconv.FormatFloat(q.Value, 'g', -1, 64)
	if q.Dim.IsDimensionless() {
		return v
	}
	return v + " " + q.Dim.String()
}
