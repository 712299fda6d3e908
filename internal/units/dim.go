package units

import (
	"fmt"
	"math"
	"strings"
)

// Dim describes a physical dimension as exponents over the seven SI base
// dimensions. Each exponent is stored doubled, so half-integer powers remain
// representable as integers: the white-noise input used by stochastic
// differential equations has dimension second^(-1/2).
type Dim struct {
	// exps holds twice the exponent of, in order:
	// metre, kilogram, second, ampere, kelvin, mole, candela.
	exps [7]int8
}

// Indices into Dim.exps.
const (
	dimMetre = iota
	dimKilogram
	dimSecond
	dimAmpere
	dimKelvin
	dimMole
	dimCandela
)

// baseSymbols are the SI symbols used when rendering a Dim.
var baseSymbols = [7]string{"m", "kg", "s", "A", "K", "mol", "cd"}

// baseDim returns the dimension with a single base exponent of one.
func baseDim(i int) Dim {
	var d Dim
	d.exps[i] = 2
	return d
}

// Base dimensions.
var (
	DimMetre    = baseDim(dimMetre)
	DimKilogram = baseDim(dimKilogram)
	DimSecond   = baseDim(dimSecond)
	DimAmpere   = baseDim(dimAmpere)
	DimKelvin   = baseDim(dimKelvin)
	DimMole     = baseDim(dimMole)
	DimCandela  = baseDim(dimCandela)
)

// Dimensionless is the dimension of a plain number.
var Dimensionless = Dim{}

// IsDimensionless reports whether every base exponent is zero.
func (d Dim) IsDimensionless() bool {
	return d == Dim{}
}

// Mul returns the dimension of a product of quantities with dimensions d and o.
func (d Dim) Mul(o Dim) Dim {
	var r Dim
	for i := range d.exps {
		r.exps[i] = d.exps[i] + o.exps[i]
	}
	return r
}

// Div returns the dimension of a quotient of quantities with dimensions d and o.
func (d Dim) Div(o Dim) Dim {
	var r Dim
	for i := range d.exps {
		r.exps[i] = d.exps[i] - o.exps[i]
	}
	return r
}

// Pow raises the dimension to the power n. The resulting exponents must land
// on multiples of one half; anything else is an error, because the dimension
// system cannot represent it.
func (d Dim) Pow(n float64) (Dim, error) {
	var r Dim
	for i, e := range d.exps {
		scaled := float64(e) * n
		rounded := math.Round(scaled)
		if math.Abs(scaled-rounded) > 1e-9 {
			return Dim{}, fmt.Errorf("cannot raise dimension %s to power %v: fractional exponent", d, n)
		}
		if rounded > 127 || rounded < -128 {
			return Dim{}, fmt.Errorf("cannot raise dimension %s to power %v: exponent overflow", d, n)
		}
		r.exps[i] = int8(rounded)
	}
	return r, nil
}

// String renders the dimension in SI base symbols, e.g. "m^2 kg s^-3 A^-1".
// Half-integer exponents render as fractions, e.g. "s^-1/2". The
// dimensionless dimension renders as "1".
func (d Dim) String() string {
	if d.IsDimensionless() {
		return "1"
	}
	var parts []string
	for i, e := range d.exps {
		switch {
		case e == 0:
			continue
		case e == 2:
			parts = append(parts, baseSymbols[i])
		case e%2 == 0:
			parts = append(parts, fmt.Sprintf("%s^%d", baseSymbols[i], e/2))
		default:
			parts = append(parts, fmt.Sprintf("%s^%d/2", baseSymbols[i], e))
		}
	}
	return strings.Join(parts, " ")
}
