package expr

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// rewriteIdents rewrites identifier tokens in an expression source string,
// leaving every other byte untouched. The replace callback is invoked per
// identifier occurrence and reports whether to substitute. Function call
// names lex as identifiers too but are never variables, so a token directly
// followed by an opening parenthesis is skipped.
func rewriteIdents(src string, replace func(name string) (string, bool)) (string, error) {
	tokens, diags := hclsyntax.LexExpression([]byte(src), "", hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return "", fmt.Errorf("cannot tokenize expression %q: %s", src, diags.Error())
	}

	var sb strings.Builder
	last := 0
	for i, tok := range tokens {
		if tok.Type != hclsyntax.TokenIdent {
			continue
		}
		if i+1 < len(tokens) && tokens[i+1].Type == hclsyntax.TokenOParen {
			continue // function call name
		}
		rep, ok := replace(string(tok.Bytes))
		if !ok {
			continue
		}
		sb.WriteString(src[last:tok.Range.Start.Byte])
		sb.WriteString(rep)
		last = tok.Range.End.Byte
	}
	sb.WriteString(src[last:])
	return sb.String(), nil
}

// RenameIdents returns src with every identifier that has an entry in the
// mapping renamed to its replacement name.
func RenameIdents(src string, mapping map[string]string) (string, error) {
	return rewriteIdents(src, func(name string) (string, bool) {
		to, ok := mapping[name]
		return to, ok
	})
}

// SpliceIdent returns src with every occurrence of the identifier replaced
// by the given expression, parenthesized so that surrounding operator
// precedence cannot change its meaning.
func SpliceIdent(src, name, replacement string) (string, error) {
	return rewriteIdents(src, func(ident string) (string, bool) {
		if ident != name {
			return "", false
		}
		return "(" + replacement + ")", true
	})
}
