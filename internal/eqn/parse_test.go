package eqn

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maksv/neurite/internal/units"
)

func TestLogicalLines(t *testing.T) {
	src := `
# leaky integrate-and-fire
dv/dt = (el - v) / tau \
        + i_inj / cm : volt  # folded line

w : volt
`
	lines := logicalLines(src)
	require.Len(t, lines, 2)
	assert.Equal(t, "dv/dt = (el - v) / tau + i_inj / cm : volt", lines[0].text)
	assert.Equal(t, 3, lines[0].num)
	assert.Equal(t, "w : volt", lines[1].text)
	assert.Equal(t, 6, lines[1].num)
}

func TestParseLineShapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind Kind
	}{
		{"differential", "dv/dt = -v / tau : volt", Differential},
		{"differential with spaces", "d v / dt = -v / tau : volt", Differential},
		{"static", "I_syn = ge * (ee - v) : amp", Static},
		{"alias", "vm = v", Alias},
		{"parameter", "tau : second", Parameter},
		{"conditional keeps its colon", "g = v > vt ? 1 : 0 : 1", Static},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := parseLine(sourceLine{text: tt.in, num: 1})
			require.NoError(t, err)
			assert.Equal(t, tt.kind, raw.kind)
		})
	}

	t.Run("conditional unit split", func(t *testing.T) {
		raw, err := parseLine(sourceLine{text: "g = v > vt ? 1 : 0 : 1", num: 1})
		require.NoError(t, err)
		assert.Equal(t, "v > vt ? 1 : 0", raw.rhs)
		assert.Equal(t, "1", raw.unitSrc)
	})
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		reason string
	}{
		{"bare words", "foo bar", "not a recognized definition shape"},
		{"differential without unit", "dv/dt = -v / tau", "missing a unit"},
		{"equation without unit or alias", "x = a + b", "must be an alias"},
		{"empty rhs", "x = ", "missing right-hand side"},
		{"bad parameter name", "2tau : second", "invalid parameter name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseLine(sourceLine{text: tt.in, num: 7})
			require.Error(t, err)
			var syn *SyntaxError
			require.ErrorAs(t, err, &syn)
			assert.Equal(t, 7, syn.Line)
			assert.Contains(t, syn.Reason, tt.reason)
		})
	}
}

func TestParse(t *testing.T) {
	ctx := context.Background()

	t.Run("classification lists", func(t *testing.T) {
		s, err := Parse(ctx, `
			dv/dt = (el - v) / tau : volt
			I_syn = ge * scale : volt
			ge : volt
			el : volt
			tau : second
			u = v
		`)
		require.NoError(t, err)

		assert.Equal(t, []string{"v", "ge", "el", "tau"}, s.DifferentialNames())
		assert.Equal(t, []string{"v"}, s.NonParameterDifferentialNames())
		assert.ElementsMatch(t, []string{"I_syn", "u"}, s.StaticNames())
		assert.Equal(t, map[string]string{"u": "v"}, s.Aliases())

		kind, ok := s.KindOf("tau")
		require.True(t, ok)
		assert.Equal(t, Parameter, kind)
	})

	t.Run("duplicate names in one string conflict", func(t *testing.T) {
		_, err := Parse(ctx, "x : volt\nx : amp")
		var conflict *NamingConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "x", conflict.Name)
	})

	t.Run("bad expression is a syntax error", func(t *testing.T) {
		_, err := Parse(ctx, "dv/dt = -v +* tau : volt")
		var syn *SyntaxError
		assert.ErrorAs(t, err, &syn)
	})

	t.Run("unknown unit is a syntax error", func(t *testing.T) {
		_, err := Parse(ctx, "dv/dt = -v / tau : parsec")
		var syn *SyntaxError
		require.ErrorAs(t, err, &syn)
		assert.Contains(t, syn.Reason, "bad unit")
	})

	t.Run("redefining reserved identifiers warns", func(t *testing.T) {
		s, err := Parse(ctx, "t : second")
		require.NoError(t, err)
		require.NotEmpty(t, s.Warnings())
		assert.Contains(t, s.Warnings()[0].Summary, "reserved identifier")
	})
}

func TestNamespaceModes(t *testing.T) {
	ctx := context.Background()
	lib := units.Library()

	t.Run("implicit resolution searches scopes then the library", func(t *testing.T) {
		local := units.Scope{"tau": units.New(0.020, units.DimSecond)}
		enclosing := units.Scope{
			"tau": units.New(0.099, units.DimSecond), // shadowed by local
			"el":  units.New(-0.060, lib["volt"].Dim),
		}
		s, err := Parse(ctx, "dv/dt = (el - v) / tau + 0*volt/second : volt",
			WithScopes(local, enclosing))
		require.NoError(t, err)

		ns := s.defs["v"].namespace
		assert.Equal(t, 0.020, ns["tau"].Value)   // local wins
		assert.Equal(t, -0.060, ns["el"].Value)   // from enclosing
		assert.Equal(t, lib["volt"], ns["volt"])  // from the library
		assert.NotContains(t, ns, "v")            // model variables never bind
	})

	t.Run("explicit namespace disables implicit resolution", func(t *testing.T) {
		s, err := Parse(ctx, "dv/dt = -v / second : volt", WithNamespace(units.Scope{}))
		require.NoError(t, err)
		// "second" would resolve from the library in implicit mode.
		assert.NotContains(t, s.defs["v"].namespace, "second")

		require.NoError(t, s.Prepare(ctx))
		warnings := s.Warnings()
		require.NotEmpty(t, warnings)
		last := warnings[len(warnings)-1]
		assert.Equal(t, "unresolved identifiers", last.Summary)
		assert.Contains(t, last.Detail, "second")
	})

	t.Run("substitution renames identifiers and variables", func(t *testing.T) {
		s, err := Parse(ctx, "dx/dt = -x / tau : volt\ntau : second",
			WithSubstitution("x", ReplaceWith("y")))
		require.NoError(t, err)

		assert.Equal(t, []string{"y", "tau"}, s.DifferentialNames())
		assert.Equal(t, "-y / tau", s.defs["y"].rhs)
	})

	t.Run("fresh substitution produces an opaque unique name", func(t *testing.T) {
		s, err := Parse(ctx, "dx/dt = -x / tau : volt", WithSubstitution("x", FreshName()))
		require.NoError(t, err)

		names := s.DifferentialNames()
		require.Len(t, names, 1)
		assert.True(t, strings.HasPrefix(names[0], "_sub_"), "got %q", names[0])
		assert.NotContains(t, s.defs, "x")
	})
}

func TestMerge(t *testing.T) {
	ctx := context.Background()

	t.Run("disjoint sets union", func(t *testing.T) {
		a, err := Parse(ctx, "dv/dt = -v / tau : volt\ntau : second")
		require.NoError(t, err)
		b, err := Parse(ctx, "dw/dt = -w / tau2 : amp\ntau2 : second")
		require.NoError(t, err)

		require.NoError(t, a.Merge(ctx, b))
		assert.Equal(t, []string{"tau", "tau2", "v", "w"}, a.Names())
	})

	t.Run("same name conflicts", func(t *testing.T) {
		a, err := Parse(ctx, "dx/dt = 0 * volt / second : volt")
		require.NoError(t, err)
		b, err := Parse(ctx, "x : volt")
		require.NoError(t, err)

		err = a.Merge(ctx, b)
		var conflict *NamingConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "x", conflict.Name)
	})

	t.Run("merged definitions are independent of the donor", func(t *testing.T) {
		donor, err := Parse(ctx, `
			dw/dt = (q - w) / second : volt
			q = 0 * volt : volt
		`)
		require.NoError(t, err)
		merged, err := Parse(ctx, "x : volt")
		require.NoError(t, err)
		require.NoError(t, merged.Merge(ctx, donor))

		// Finalizing the donor rewrites its own definitions via static
		// substitution; the merged copies must not change with them.
		require.NoError(t, donor.Prepare(ctx))
		assert.False(t, donor.defs["w"].expr.References("q"))
		assert.True(t, merged.defs["w"].expr.References("q"))

		require.NoError(t, merged.Prepare(ctx))
		assert.False(t, merged.defs["w"].expr.References("q"))
	})

	t.Run("merge after finalization is rejected", func(t *testing.T) {
		a, err := Parse(ctx, "x : volt")
		require.NoError(t, err)
		b, err := Parse(ctx, "y : volt")
		require.NoError(t, err)

		require.NoError(t, a.Prepare(ctx))
		assert.ErrorContains(t, a.Merge(ctx, b), "finalized")
		assert.ErrorContains(t, b.Merge(ctx, a), "finalized")
	})
}
