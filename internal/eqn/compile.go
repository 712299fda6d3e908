package eqn

import (
	"fmt"

	"github.com/maksv/neurite/internal/units"
)

// Func is the executable form of a definition's right-hand side. Its
// parameters are exactly the free identifiers that denote model variables
// (plus time and noise when referenced); everything else is closed over from
// the definition's namespace. The parameter list is carried explicitly so
// callers never need to recover it by introspection.
type Func struct {
	Params []string

	def *definition
}

// compile builds the update function for a definition. isVar reports whether
// a name denotes a model variable in the enclosing set.
func compile(d *definition, isVar func(name string) bool) *Func {
	var params []string
	for _, ident := range d.expr.FreeIdents() {
		if isVar(ident) || ident == TimeName || ident == NoiseName {
			params = append(params, ident)
		}
	}
	return &Func{Params: params, def: d}
}

// Call evaluates the function with positional arguments matching Params.
// Identifiers that are neither parameters nor namespace-bound produce an
// *expr.UnresolvedError.
func (f *Func) Call(args ...units.Quantity) (units.Quantity, error) {
	if len(args) != len(f.Params) {
		return units.Quantity{}, fmt.Errorf("%s takes %d argument(s), got %d", f.def.name, len(f.Params), len(args))
	}
	return f.def.expr.Eval(func(name string) (units.Quantity, bool) {
		for i, p := range f.Params {
			if p == name {
				return args[i], true
			}
		}
		q, ok := f.def.namespace[name]
		return q, ok
	})
}

// CallNamed evaluates the function with arguments given by name. Missing
// parameters surface as unresolved identifiers.
func (f *Func) CallNamed(args map[string]units.Quantity) (units.Quantity, error) {
	positional := make([]units.Quantity, len(f.Params))
	for i, p := range f.Params {
		q, ok := args[p]
		if !ok {
			return units.Quantity{}, fmt.Errorf("%s: missing argument %q", f.def.name, p)
		}
		positional[i] = q
	}
	return f.Call(positional...)
}
