package eqn

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/maksv/neurite/internal/ctxlog"
	"github.com/maksv/neurite/internal/dag"
	"github.com/maksv/neurite/internal/expr"
	"github.com/maksv/neurite/internal/units"
)

// referenceCandidates are the conventional membrane-potential names. When
// exactly one is defined as a differential variable it becomes the default
// target for threshold and reset logic in the surrounding runtime.
var referenceCandidates = []string{"v", "V", "vm", "Vm"}

// noiseDim is the dimension of the white-noise input, second^(-1/2). It is
// handed to the unit checker as an explicit evaluation parameter.
var noiseDim = func() units.Dim {
	d, err := units.DimSecond.Pow(-0.5)
	if err != nil {
		panic(err)
	}
	return d
}()

// Prepare finalizes the set: reference-variable identification, namespace
// cleanup, function compilation, unit checking, dependency ordering, static
// substitution, recompilation, and a final free-variable report. It runs
// exactly once; dimension mismatches and dependency cycles are fatal, while
// unresolved identifiers and namespace shadows only produce warnings.
func (s *Set) Prepare(ctx context.Context) error {
	if s.state != stateUnprepared {
		return fmt.Errorf("equation set is already finalized")
	}
	logger := ctxlog.FromContext(ctx)

	s.findReferenceVariable(ctx)
	s.state = stateReferenceFound

	if err := s.resolveAliasUnits(ctx); err != nil {
		return err
	}
	s.cleanNamespaces(ctx)
	s.state = stateNamespaceCleaned

	s.compileAll()
	s.state = stateCompiled

	if err := s.orderStatics(); err != nil {
		return err
	}
	if err := s.checkUnits(ctx, noiseDim); err != nil {
		return err
	}
	s.state = stateChecked

	if err := s.substituteStatics(ctx); err != nil {
		return err
	}
	s.state = stateSubstituted

	s.compileAll()
	s.state = stateRecompiled

	s.reportFreeVariables(ctx)
	s.state = stateFinalized

	logger.Debug("equation set finalized",
		"differential", len(s.diffNames), "static", len(s.staticNames), "reference", s.refName)
	return nil
}

// findReferenceVariable promotes the conventional membrane-potential name to
// the front of the differential order when exactly one candidate is defined.
func (s *Set) findReferenceVariable(ctx context.Context) {
	var matches []string
	for _, cand := range referenceCandidates {
		for _, name := range s.diffNames {
			if name == cand {
				matches = append(matches, cand)
			}
		}
	}
	if len(matches) != 1 {
		ctxlog.FromContext(ctx).Debug("no reference variable identified", "candidates", len(matches))
		return
	}

	s.refName = matches[0]
	reordered := []string{s.refName}
	for _, name := range s.diffNames {
		if name != s.refName {
			reordered = append(reordered, name)
		}
	}
	s.diffNames = reordered
}

// resolveAliasUnits gives each alias the declared unit of its target. An
// alias of an undefined variable keeps a dimensionless unit and is reported
// with the unresolved identifiers later.
func (s *Set) resolveAliasUnits(ctx context.Context) error {
	for _, name := range s.staticNames {
		d := s.defs[name]
		if d.kind != Alias {
			continue
		}
		target, seen := d.aliasOf, map[string]bool{name: true}
		for {
			td, ok := s.defs[target]
			if !ok {
				s.warn(ctx, "alias of undefined variable",
					fmt.Sprintf("%q is an alias of %q, which is not defined in this set", name, d.aliasOf))
				d.unit = units.Scalar(1)
				break
			}
			if td.kind != Alias {
				d.unit = td.unit
				break
			}
			if seen[target] {
				return &dag.CycleError{Node: name}
			}
			seen[target] = true
			target = td.aliasOf
		}
	}
	return nil
}

// cleanNamespaces removes model-variable names and the time identifier from
// every definition's namespace, warning per removal. The noise identifier is
// deliberately not removed; the asymmetry is long-standing behavior that
// model code may rely on.
func (s *Set) cleanNamespaces(ctx context.Context) {
	for _, d := range s.ordered() {
		for ident := range d.namespace {
			_, isVar := s.defs[ident]
			if !isVar && ident != TimeName {
				continue
			}
			delete(d.namespace, ident)
			if ident == TimeName {
				s.warn(ctx, "time identifier removed from namespace",
					fmt.Sprintf("%q is supplied by the runtime; its binding in the equation for %q was dropped", ident, d.name))
				continue
			}
			s.warn(ctx, "namespace identifier shadows a model variable",
				fmt.Sprintf("the binding of %q in the equation for %q was dropped in favor of the model variable", ident, d.name))
		}
	}
}

// compileAll builds (or rebuilds) every definition's update function.
func (s *Set) compileAll() {
	isVar := func(name string) bool {
		_, ok := s.defs[name]
		return ok
	}
	for _, d := range s.ordered() {
		d.fn = compile(d, isVar)
	}
}

// orderStatics builds the static-variable reference graph, rejects cycles,
// rewrites staticNames into evaluation order, and caches each definition's
// transitive static dependencies in that order.
func (s *Set) orderStatics() error {
	isStatic := make(map[string]bool, len(s.staticNames))
	graph := dag.New()
	for _, name := range s.staticNames {
		isStatic[name] = true
		graph.AddNode(name)
	}
	for _, name := range s.staticNames {
		for _, ident := range s.defs[name].expr.FreeIdents() {
			if !isStatic[ident] {
				continue
			}
			// A self-reference is a one-node cycle; it would never reach
			// DetectCycles as graph edges cannot be self-referential.
			if ident == name {
				return &dag.CycleError{Node: name}
			}
			// name depends on ident.
			if err := graph.AddEdge(ident, name); err != nil {
				return err
			}
		}
	}

	order, err := graph.TopologicalOrder()
	if err != nil {
		return err
	}
	s.staticNames = order

	orderIndex := make(map[string]int, len(order))
	for i, name := range order {
		orderIndex[name] = i
	}
	inOrder := func(deps []string) []string {
		sort.Slice(deps, func(i, j int) bool { return orderIndex[deps[i]] < orderIndex[deps[j]] })
		return deps
	}

	for _, name := range s.staticNames {
		deps, err := graph.TransitiveDependencies(name)
		if err != nil {
			return err
		}
		s.defs[name].staticDeps = inOrder(deps)
	}
	for _, name := range s.diffNames {
		d := s.defs[name]
		seen := make(map[string]bool)
		for _, ident := range d.expr.FreeIdents() {
			if !isStatic[ident] || seen[ident] {
				continue
			}
			seen[ident] = true
			for _, dep := range s.defs[ident].staticDeps {
				seen[dep] = true
			}
		}
		deps := make([]string, 0, len(seen))
		for dep := range seen {
			deps = append(deps, dep)
		}
		d.staticDeps = inOrder(deps)
	}
	return nil
}

// checkUnits verifies dimensional consistency of every definition by
// evaluating its compiled function with representative one-valued quantities
// per parameter. Statics are checked in evaluation order first. noise is the
// dimension substituted for the stochastic input. A definition whose check
// cannot complete because of unresolved identifiers is skipped: bindings may
// legitimately arrive later.
func (s *Set) checkUnits(ctx context.Context, noise units.Dim) error {
	logger := ctxlog.FromContext(ctx)

	names := make([]string, 0, len(s.defs))
	names = append(names, s.staticNames...)
	names = append(names, s.diffNames...)

	for _, name := range names {
		d := s.defs[name]

		args := make([]units.Quantity, len(d.fn.Params))
		for i, p := range d.fn.Params {
			switch p {
			case TimeName:
				args[i] = units.New(1, units.DimSecond)
			case NoiseName:
				args[i] = units.New(1, noise)
			default:
				args[i] = units.New(1, s.defs[p].unit.Dim)
			}
		}

		got, err := d.fn.Call(args...)
		if err != nil {
			var unres *expr.UnresolvedError
			if errors.As(err, &unres) {
				logger.Debug("unit check skipped: unresolved identifier",
					"variable", name, "identifier", unres.Name)
				continue
			}
			var mismatch *units.MismatchError
			if errors.As(err, &mismatch) {
				return &DimensionError{Var: name, Differential: d.kind == Differential || d.kind == Parameter, Cause: err}
			}
			// Not a dimensional problem, e.g. an unknown function name.
			return fmt.Errorf("equation for %q: %w", name, err)
		}

		expected := d.unit.Dim
		differential := d.kind == Differential || d.kind == Parameter
		if differential {
			expected = expected.Div(units.DimSecond)
		}
		if got.Dim != expected {
			return &DimensionError{Var: name, Differential: differential, Expected: expected, Got: got.Dim}
		}
	}
	return nil
}

// substituteStatics splices every static variable's right-hand side into the
// definitions that reference it, walking statics in evaluation order so each
// spliced expression is already fully expanded. Namespace identifiers inside
// a static's expression are prefixed with "<staticname>_" before splicing to
// keep them collision-free, and the renamed bindings are merged into the
// target's namespace.
func (s *Set) substituteStatics(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	for _, staticName := range s.staticNames {
		sd := s.defs[staticName]

		renames := make(map[string]string, len(sd.namespace))
		renamedNS := make(units.Scope, len(sd.namespace))
		for ident, q := range sd.namespace {
			renamed := staticName + "_" + ident
			renames[ident] = renamed
			renamedNS[renamed] = q
		}
		renamedRHS, err := expr.RenameIdents(sd.rhs, renames)
		if err != nil {
			return fmt.Errorf("substituting %q: %w", staticName, err)
		}

		for _, d := range s.ordered() {
			if d.name == staticName || !d.expr.References(staticName) {
				continue
			}
			rhs, err := expr.SpliceIdent(d.rhs, staticName, renamedRHS)
			if err != nil {
				return fmt.Errorf("substituting %q into %q: %w", staticName, d.name, err)
			}
			d.rhs = rhs
			if err := d.reparse(); err != nil {
				return fmt.Errorf("substituting %q into %q: %w", staticName, d.name, err)
			}
			for ident, q := range renamedNS {
				d.namespace[ident] = q
			}
			logger.Debug("static variable substituted", "static", staticName, "into", d.name)
		}
	}
	return nil
}

// reportFreeVariables emits one warning listing every identifier still
// unresolved after substitution. Deployments may intentionally supply these
// bindings through the runtime instead of the equation object.
func (s *Set) reportFreeVariables(ctx context.Context) {
	unresolved := make(map[string]bool)
	for _, d := range s.ordered() {
		for _, ident := range d.expr.FreeIdents() {
			if _, isVar := s.defs[ident]; isVar || ident == TimeName || ident == NoiseName {
				continue
			}
			if _, bound := d.namespace[ident]; bound {
				continue
			}
			unresolved[ident] = true
		}
	}
	if len(unresolved) == 0 {
		return
	}

	names := make([]string, 0, len(unresolved))
	for ident := range unresolved {
		names = append(names, ident)
	}
	sort.Strings(names)
	s.warn(ctx, "unresolved identifiers",
		fmt.Sprintf("no binding found for: %s", strings.Join(names, ", ")))
}
