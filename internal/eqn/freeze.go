package eqn

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/maksv/neurite/internal/ctxlog"
	"github.com/maksv/neurite/internal/expr"
)

// Freeze replaces every namespace-bound identifier in each expression with
// its literal SI magnitude, eliminating namespace lookups from evaluation.
// Best effort: a binding without a usable literal form is skipped with a
// warning. Freezing is idempotent and leaves the numeric semantics of the
// set unchanged; dimensional bookkeeping on frozen identifiers is gone,
// which is why it requires an already unit-checked, finalized set.
func (s *Set) Freeze(ctx context.Context) error {
	if s.state != stateFinalized {
		return fmt.Errorf("freeze requires a finalized equation set")
	}
	logger := ctxlog.FromContext(ctx)

	for _, d := range s.ordered() {
		changed := false
		for _, ident := range d.expr.FreeIdents() {
			q, bound := d.namespace[ident]
			if !bound {
				continue
			}
			if math.IsNaN(q.Value) || math.IsInf(q.Value, 0) {
				s.warn(ctx, "identifier could not be frozen",
					fmt.Sprintf("the value bound to %q in the equation for %q has no literal form", ident, d.name))
				continue
			}

			lit := strconv.FormatFloat(q.Value, 'g', -1, 64)
			rhs, err := expr.SpliceIdent(d.rhs, ident, lit)
			if err != nil {
				return fmt.Errorf("freezing %q in equation for %q: %w", ident, d.name, err)
			}
			d.rhs = rhs
			delete(d.namespace, ident)
			changed = true
		}
		if !changed {
			continue
		}
		if err := d.reparse(); err != nil {
			return fmt.Errorf("freezing equation for %q: %w", d.name, err)
		}
		logger.Debug("equation frozen", "variable", d.name, "rhs", d.rhs)
	}

	s.compileAll()
	return nil
}
