package eqn

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/maksv/neurite/internal/ctxlog"
	"github.com/maksv/neurite/internal/units"
)

// state tracks finalization progress. Every transition is one-directional
// and runs exactly once per set.
type state int

const (
	stateUnprepared state = iota
	stateReferenceFound
	stateNamespaceCleaned
	stateCompiled
	stateChecked
	stateSubstituted
	stateRecompiled
	stateFinalized
)

// Set is a collection of named variable definitions: differential equations,
// static (algebraic) equations, aliases, and parameters. It is mutated only
// by Merge before finalization, finalized exactly once by Prepare, and
// treated as immutable afterwards.
type Set struct {
	defs map[string]*definition

	// diffNames holds differential variables (parameters included) in
	// definition order; finalization may move the reference variable to the
	// front. staticNames holds static variables and aliases, rewritten into
	// evaluation order during finalization.
	diffNames   []string
	staticNames []string

	aliases map[string]string

	refName  string
	state    state
	warnings hcl.Diagnostics
}

func newSet() *Set {
	return &Set{
		defs:    make(map[string]*definition),
		aliases: make(map[string]string),
	}
}

// add registers a definition, assuming the name is unique.
func (s *Set) add(d *definition) {
	s.defs[d.name] = d
	switch d.kind {
	case Differential, Parameter:
		s.diffNames = append(s.diffNames, d.name)
	case Static:
		s.staticNames = append(s.staticNames, d.name)
	case Alias:
		s.staticNames = append(s.staticNames, d.name)
		s.aliases[d.name] = d.aliasOf
	}
}

// ordered returns all definitions in a deterministic order: differential
// variables first, then statics and aliases, each in their list order.
func (s *Set) ordered() []*definition {
	out := make([]*definition, 0, len(s.defs))
	for _, name := range s.diffNames {
		out = append(out, s.defs[name])
	}
	for _, name := range s.staticNames {
		out = append(out, s.defs[name])
	}
	return out
}

// warn records a non-fatal diagnostic and logs it.
func (s *Set) warn(ctx context.Context, summary, detail string) {
	s.warnings = append(s.warnings, &hcl.Diagnostic{
		Severity: hcl.DiagWarning,
		Summary:  summary,
		Detail:   detail,
	})
	ctxlog.FromContext(ctx).Warn(summary, "detail", detail)
}

// Merge unions another equation set into this one: classification lists,
// namespaces, units, and definition strings. It fails if both sets define
// the same variable name, and must happen before either set is finalized.
// Definitions are copied, so finalizing or freezing the donor afterwards
// cannot rewrite the merged set.
func (s *Set) Merge(ctx context.Context, other *Set) error {
	if s.state != stateUnprepared || other.state != stateUnprepared {
		return fmt.Errorf("cannot merge finalized equation sets")
	}
	for name := range other.defs {
		if _, dup := s.defs[name]; dup {
			return &NamingConflictError{Name: name}
		}
	}

	for _, d := range other.ordered() {
		s.add(d.clone())
	}
	s.warnings = append(s.warnings, other.warnings...)

	ctxlog.FromContext(ctx).Debug("equation sets merged", "variables", len(s.defs))
	return nil
}

// Names returns every defined variable name, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.defs))
	for name := range s.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DifferentialNames returns the ordered differential variable names,
// parameters included. After finalization the reference variable, when one
// was identified, is first.
func (s *Set) DifferentialNames() []string {
	return append([]string(nil), s.diffNames...)
}

// NonParameterDifferentialNames returns the differential variables that
// carry actual dynamics, in the same order as DifferentialNames.
func (s *Set) NonParameterDifferentialNames() []string {
	var names []string
	for _, name := range s.diffNames {
		if s.defs[name].kind == Differential {
			names = append(names, name)
		}
	}
	return names
}

// StaticNames returns the static variable and alias names. After
// finalization they are in evaluation order.
func (s *Set) StaticNames() []string {
	return append([]string(nil), s.staticNames...)
}

// Aliases returns the alias mapping.
func (s *Set) Aliases() map[string]string {
	out := make(map[string]string, len(s.aliases))
	for k, v := range s.aliases {
		out[k] = v
	}
	return out
}

// KindOf returns a variable's definition kind.
func (s *Set) KindOf(name string) (Kind, bool) {
	d, ok := s.defs[name]
	if !ok {
		return 0, false
	}
	return d.kind, true
}

// UnitOf returns the declared unit of a variable as a representative
// quantity of magnitude one.
func (s *Set) UnitOf(name string) (units.Quantity, bool) {
	d, ok := s.defs[name]
	if !ok {
		return units.Quantity{}, false
	}
	return d.unit, true
}

// Func returns the compiled update function for a variable. Functions exist
// once the set is finalized.
func (s *Set) Func(name string) (*Func, bool) {
	d, ok := s.defs[name]
	if !ok || d.fn == nil {
		return nil, false
	}
	return d.fn, true
}

// ReferenceVariable returns the designated membrane-potential variable, or
// false when none was identified.
func (s *Set) ReferenceVariable() (string, bool) {
	return s.refName, s.refName != ""
}

// StaticDependencies returns the static variables the named definition
// transitively depends on, in evaluation order. Populated by finalization.
func (s *Set) StaticDependencies(name string) []string {
	d, ok := s.defs[name]
	if !ok {
		return nil
	}
	return append([]string(nil), d.staticDeps...)
}

// Warnings returns the non-fatal diagnostics accumulated so far.
func (s *Set) Warnings() hcl.Diagnostics {
	return append(hcl.Diagnostics(nil), s.warnings...)
}

// Finalized reports whether Prepare has completed.
func (s *Set) Finalized() bool {
	return s.state == stateFinalized
}

// String renders the set back in definition syntax, one line per variable.
func (s *Set) String() string {
	var sb strings.Builder
	for _, name := range s.diffNames {
		d := s.defs[name]
		if d.kind == Parameter {
			fmt.Fprintf(&sb, "%s : %s\n", d.name, d.unitSrc)
			continue
		}
		fmt.Fprintf(&sb, "d%s/dt = %s : %s\n", d.name, d.rhs, d.unitSrc)
	}
	for _, name := range s.staticNames {
		d := s.defs[name]
		if d.kind == Alias {
			fmt.Fprintf(&sb, "%s = %s\n", d.name, d.aliasOf)
			continue
		}
		fmt.Fprintf(&sb, "%s = %s : %s\n", d.name, d.rhs, d.unitSrc)
	}
	return sb.String()
}
