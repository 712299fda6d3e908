// Package expr wraps HCL's native expression syntax for use as the
// right-hand-side language of equation definitions. It provides parsing,
// free-identifier analysis, token-level rewriting, and evaluation in
// quantity space, where every value carries a physical dimension.
package expr

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// Expr is a parsed right-hand-side expression together with its source text.
type Expr struct {
	src  string
	node hclsyntax.Expression
}

// Parse parses src as a single expression. The name is used in diagnostics,
// typically the variable the expression defines.
func Parse(src, name string) (*Expr, error) {
	node, diags := hclsyntax.ParseExpression([]byte(src), name, hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid expression %q: %s", src, diags.Error())
	}
	return &Expr{src: src, node: node}, nil
}

// Source returns the expression's source text.
func (e *Expr) Source() string {
	return e.src
}

// FreeIdents returns the unique root identifiers referenced by the
// expression, sorted to ensure a deterministic order. Function call names
// are not identifiers and are not included.
func (e *Expr) FreeIdents() []string {
	seen := make(map[string]struct{})
	for _, traversal := range e.node.Variables() {
		seen[traversal.RootName()] = struct{}{}
	}

	idents := make([]string, 0, len(seen))
	for name := range seen {
		idents = append(idents, name)
	}
	sort.Strings(idents)
	return idents
}

// References reports whether the expression mentions the given identifier.
func (e *Expr) References(name string) bool {
	for _, traversal := range e.node.Variables() {
		if traversal.RootName() == name {
			return true
		}
	}
	return false
}
