package eqn

import (
	"github.com/maksv/neurite/internal/expr"
	"github.com/maksv/neurite/internal/units"
)

// Kind classifies a definition by its syntactic shape.
type Kind int

const (
	// Differential is dX/dt = expr : unit.
	Differential Kind = iota
	// Static is X = expr : unit, an algebraic quantity recomputed each step.
	Static
	// Alias is X = Y, a pure renaming with no unit and no computation.
	Alias
	// Parameter is X : unit. Internally it is a differential equation with a
	// zero rate, so it flows through downstream processing uniformly while
	// contributing no dynamics.
	Parameter
)

func (k Kind) String() string {
	switch k {
	case Differential:
		return "differential equation"
	case Static:
		return "static equation"
	case Alias:
		return "alias"
	case Parameter:
		return "parameter"
	default:
		return "unknown"
	}
}

// Reserved identifiers. Time and the stochastic (white noise) input are
// supplied by the runtime, never defined by the user.
const (
	TimeName  = "t"
	NoiseName = "xi"
)

// definition is one parsed equation line plus everything finalization
// attaches to it.
type definition struct {
	name    string
	kind    Kind
	rhs     string     // current right-hand-side source; substitution and freezing rewrite it
	expr    *expr.Expr // parsed form of rhs, kept in sync with it
	unit    units.Quantity
	unitSrc string
	line    int

	// namespace binds the free identifiers of rhs that do not denote model
	// variables.
	namespace units.Scope

	fn *Func

	// staticDeps is the ordered list of static variables this definition
	// transitively depends on, cached during dependency ordering.
	staticDeps []string

	// aliasOf is the renamed variable when kind is Alias.
	aliasOf string
}

// clone returns an independent copy of the definition. The parsed expression
// is shared: rewrites always replace it via reparse, never mutate it.
func (d *definition) clone() *definition {
	c := *d
	c.namespace = make(units.Scope, len(d.namespace))
	for ident, q := range d.namespace {
		c.namespace[ident] = q
	}
	c.staticDeps = append([]string(nil), d.staticDeps...)
	return &c
}

// reparse re-parses d.rhs after a textual rewrite.
func (d *definition) reparse() error {
	e, err := expr.Parse(d.rhs, d.name)
	if err != nil {
		return err
	}
	d.expr = e
	return nil
}
