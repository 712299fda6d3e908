package eqn

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/maksv/neurite/internal/ctxlog"
	"github.com/maksv/neurite/internal/expr"
	"github.com/maksv/neurite/internal/units"
)

var (
	identRe   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	diffLHSRe = regexp.MustCompile(`^d\s*([A-Za-z_][A-Za-z0-9_]*)\s*/\s*dt$`)
)

// sourceLine is one logical definition line with the physical line number it
// started on.
type sourceLine struct {
	text string
	num  int
}

// logicalLines splits a definition string into logical lines: '#' starts a
// comment, a trailing backslash folds the next physical line in, and blank
// lines are skipped.
func logicalLines(src string) []sourceLine {
	var out []sourceLine
	var pending string
	pendingNum := 0

	for i, raw := range strings.Split(src, "\n") {
		line := raw
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)

		if pending != "" {
			line = pending + " " + line
		} else if line != "" {
			pendingNum = i + 1
		}

		if strings.HasSuffix(line, "\\") {
			pending = strings.TrimSpace(strings.TrimSuffix(line, "\\"))
			continue
		}
		pending = ""

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, sourceLine{text: line, num: pendingNum})
	}
	if pending != "" {
		out = append(out, sourceLine{text: pending, num: pendingNum})
	}
	return out
}

// rawDef is the shape-classified form of one logical line, before expression
// parsing and namespace resolution.
type rawDef struct {
	name    string
	kind    Kind
	rhs     string
	unitSrc string
	aliasOf string
	line    int
}

// parseLine classifies a logical line into one of the four definition
// shapes. The unit separator is the last colon on the line, so conditional
// expressions may use ?: freely in the right-hand side.
func parseLine(ln sourceLine) (*rawDef, error) {
	eq := strings.Index(ln.text, "=")

	if eq < 0 {
		// X : unit, a parameter.
		colon := strings.LastIndex(ln.text, ":")
		if colon < 0 {
			return nil, &SyntaxError{Line: ln.num, Text: ln.text, Reason: "not a recognized definition shape"}
		}
		name := strings.TrimSpace(ln.text[:colon])
		unitSrc := strings.TrimSpace(ln.text[colon+1:])
		if !identRe.MatchString(name) {
			return nil, &SyntaxError{Line: ln.num, Text: ln.text, Reason: fmt.Sprintf("invalid parameter name %q", name)}
		}
		if unitSrc == "" {
			return nil, &SyntaxError{Line: ln.num, Text: ln.text, Reason: "missing unit"}
		}
		return &rawDef{name: name, kind: Parameter, unitSrc: unitSrc, line: ln.num}, nil
	}

	lhs := strings.TrimSpace(ln.text[:eq])
	rest := strings.TrimSpace(ln.text[eq+1:])
	if rest == "" || strings.HasPrefix(rest, "=") {
		return nil, &SyntaxError{Line: ln.num, Text: ln.text, Reason: "missing right-hand side"}
	}

	if m := diffLHSRe.FindStringSubmatch(lhs); m != nil {
		// dX/dt = expr : unit.
		colon := strings.LastIndex(rest, ":")
		if colon < 0 {
			return nil, &SyntaxError{Line: ln.num, Text: ln.text, Reason: "differential equation is missing a unit"}
		}
		rhs := strings.TrimSpace(rest[:colon])
		unitSrc := strings.TrimSpace(rest[colon+1:])
		if rhs == "" || unitSrc == "" {
			return nil, &SyntaxError{Line: ln.num, Text: ln.text, Reason: "differential equation is missing a unit"}
		}
		return &rawDef{name: m[1], kind: Differential, rhs: rhs, unitSrc: unitSrc, line: ln.num}, nil
	}

	if !identRe.MatchString(lhs) {
		return nil, &SyntaxError{Line: ln.num, Text: ln.text, Reason: fmt.Sprintf("invalid variable name %q", lhs)}
	}

	if colon := strings.LastIndex(rest, ":"); colon >= 0 {
		// X = expr : unit, a static equation.
		rhs := strings.TrimSpace(rest[:colon])
		unitSrc := strings.TrimSpace(rest[colon+1:])
		if rhs == "" || unitSrc == "" {
			return nil, &SyntaxError{Line: ln.num, Text: ln.text, Reason: "static equation is missing a unit"}
		}
		return &rawDef{name: lhs, kind: Static, rhs: rhs, unitSrc: unitSrc, line: ln.num}, nil
	}

	// X = Y, an alias, a pure renaming.
	if !identRe.MatchString(rest) {
		return nil, &SyntaxError{Line: ln.num, Text: ln.text, Reason: "equation without a unit must be an alias of a single variable"}
	}
	return &rawDef{name: lhs, kind: Alias, rhs: rest, aliasOf: rest, line: ln.num}, nil
}

// evalUnit evaluates a unit token against the fixed library of physical
// units. Units compose algebraically, so mV/ms and volt*second are valid.
func evalUnit(unitSrc string) (units.Quantity, error) {
	e, err := expr.Parse(unitSrc, unitSrc)
	if err != nil {
		return units.Quantity{}, err
	}
	q, err := e.Eval(units.Library().Lookup)
	if err != nil {
		return units.Quantity{}, err
	}
	if q.Value == 0 || math.IsNaN(q.Value) || math.IsInf(q.Value, 0) {
		return units.Quantity{}, fmt.Errorf("unit %q does not denote a usable scale", unitSrc)
	}
	return q, nil
}

// Parse builds an equation set from a definition string. Options provide
// explicit namespaces, identifier substitutions, or the scopes searched
// during implicit resolution. Unresolved identifiers are not an error at
// this stage: fragments are composed incrementally and bindings may arrive
// with a later merge or from the runtime.
func Parse(ctx context.Context, src string, opts ...Option) (*Set, error) {
	logger := ctxlog.FromContext(ctx)

	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}

	renames := make(map[string]string, len(o.subs))
	for name, r := range o.subs {
		renames[name] = r.resolve()
	}

	s := newSet()

	for _, ln := range logicalLines(src) {
		raw, err := parseLine(ln)
		if err != nil {
			return nil, err
		}
		d, err := buildDefinition(raw, renames)
		if err != nil {
			return nil, err
		}
		if _, dup := s.defs[d.name]; dup {
			return nil, &NamingConflictError{Name: d.name}
		}
		s.add(d)

		if d.name == TimeName || d.name == NoiseName {
			s.warn(ctx, "reserved identifier redefined",
				fmt.Sprintf("%q denotes the %s input and should not be defined by the model", d.name, reservedRole(d.name)))
		}
	}

	s.resolveNamespaces(&o)
	logger.Debug("equation set parsed",
		"differential", len(s.diffNames), "static", len(s.staticNames), "explicit_mode", o.explicitMode)
	return s, nil
}

func reservedRole(name string) string {
	if name == TimeName {
		return "time"
	}
	return "stochastic"
}

// buildDefinition applies substitutions and parses the expression and unit
// of a shape-classified line.
func buildDefinition(raw *rawDef, renames map[string]string) (*definition, error) {
	d := &definition{
		name:      raw.name,
		kind:      raw.kind,
		rhs:       raw.rhs,
		unitSrc:   raw.unitSrc,
		aliasOf:   raw.aliasOf,
		line:      raw.line,
		namespace: make(units.Scope),
	}

	// Substitutions rename identifiers everywhere, defined names included:
	// a fragment's variable can be renamed out of the way before a merge.
	if to, ok := renames[d.name]; ok {
		d.name = to
	}
	if to, ok := renames[d.aliasOf]; ok && d.aliasOf != "" {
		d.aliasOf = to
		d.rhs = to
	}
	if d.kind == Differential || d.kind == Static {
		rhs, err := expr.RenameIdents(d.rhs, renames)
		if err != nil {
			return nil, &SyntaxError{Line: d.line, Text: raw.rhs, Reason: err.Error()}
		}
		d.rhs = rhs
	}

	if d.kind != Alias {
		unit, err := evalUnit(d.unitSrc)
		if err != nil {
			return nil, &SyntaxError{Line: d.line, Text: d.unitSrc, Reason: fmt.Sprintf("bad unit: %v", err)}
		}
		// Only the dimension matters downstream; keep a representative one.
		d.unit = units.New(1, unit.Dim)
	}

	if d.kind == Parameter {
		// A parameter is a differential equation with a zero rate of
		// dimension [unit]/[time].
		d.rhs = fmt.Sprintf("0 * (%s) / second", d.unitSrc)
	}

	if err := d.reparse(); err != nil {
		return nil, &SyntaxError{Line: d.line, Text: d.rhs, Reason: err.Error()}
	}

	if d.kind == Parameter {
		// The synthesized rate references unit names; bind them directly
		// from the library regardless of resolution mode.
		for _, ident := range d.expr.FreeIdents() {
			if q, ok := units.Library()[ident]; ok {
				d.namespace[ident] = q
			}
		}
	}

	return d, nil
}

// resolveNamespaces binds the free identifiers of every definition that do
// not denote model variables. In explicit mode only the supplied mapping is
// consulted; otherwise the caller's scopes are searched in order, then the
// unit library. Identifiers that resolve nowhere are left unresolved.
func (s *Set) resolveNamespaces(o *parseOptions) {
	for _, d := range s.ordered() {
		if d.kind == Parameter || d.kind == Alias {
			continue
		}
		ns := d.namespace
		for _, ident := range d.expr.FreeIdents() {
			if o.explicitMode {
				// The explicit mapping is taken at face value, even for
				// reserved or variable names; finalization cleans those up
				// with a warning.
				if q, ok := o.explicit[ident]; ok {
					ns[ident] = q
				}
				continue
			}
			if _, isVar := s.defs[ident]; isVar || ident == TimeName || ident == NoiseName {
				continue
			}
			if q, ok := lookupScopes(o.scopes, ident); ok {
				ns[ident] = q
				continue
			}
			if q, ok := units.Library()[ident]; ok {
				ns[ident] = q
			}
		}
	}
}

func lookupScopes(scopes []units.Scope, ident string) (units.Quantity, bool) {
	for _, scope := range scopes {
		if q, ok := scope[ident]; ok {
			return q, true
		}
	}
	return units.Quantity{}, false
}
