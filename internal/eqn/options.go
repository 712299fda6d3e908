package eqn

import (
	"strings"

	"github.com/google/uuid"

	"github.com/maksv/neurite/internal/units"
)

// Replacement is the target of a variable substitution: either another
// identifier name, or a fresh opaque name generated per substitution.
type Replacement struct {
	name  string
	fresh bool
}

// ReplaceWith substitutes the identifier with the given name.
func ReplaceWith(name string) Replacement {
	return Replacement{name: name}
}

// FreshName substitutes the identifier with an opaque, globally unique name.
// It is used to make equation fragments collision-free before merging them
// into a larger model.
func FreshName() Replacement {
	return Replacement{fresh: true}
}

// resolve returns the concrete replacement name.
func (r Replacement) resolve() string {
	if !r.fresh {
		return r.name
	}
	return "_sub_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// parseOptions collects the per-call configuration of Parse.
type parseOptions struct {
	explicit units.Scope
	subs     map[string]Replacement
	scopes   []units.Scope

	// explicitMode disables implicit scope resolution. It is switched on by
	// the presence of any namespace or substitution option.
	explicitMode bool
}

// Option configures a single Parse call.
type Option func(*parseOptions)

// WithNamespace supplies an explicit namespace for the definitions being
// parsed. Its presence disables implicit scope resolution: every needed
// identifier must be accounted for by the mapping, and anything missing is
// left unresolved.
func WithNamespace(ns units.Scope) Option {
	return func(o *parseOptions) {
		if o.explicit == nil {
			o.explicit = make(units.Scope, len(ns))
		}
		for k, v := range ns {
			o.explicit[k] = v
		}
		o.explicitMode = true
	}
}

// WithSubstitution textually replaces an identifier throughout the
// definitions being parsed, before any other processing. Like WithNamespace,
// its presence disables implicit scope resolution.
func WithSubstitution(name string, r Replacement) Option {
	return func(o *parseOptions) {
		if o.subs == nil {
			o.subs = make(map[string]Replacement)
		}
		o.subs[name] = r
		o.explicitMode = true
	}
}

// WithScopes supplies the ordered bindings tables searched during implicit
// namespace resolution, ahead of the fixed unit library: conventionally the
// local scope of the call site first, then its enclosing scope.
func WithScopes(scopes ...units.Scope) Option {
	return func(o *parseOptions) {
		o.scopes = append(o.scopes, scopes...)
	}
}
