package expr

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/maksv/neurite/internal/units"
)

// LookupFunc resolves an identifier to a quantity. It reports false when the
// identifier has no binding.
type LookupFunc func(name string) (units.Quantity, bool)

// UnresolvedError reports an identifier with no binding at evaluation time.
// Callers distinguish it from dimensional errors: an unresolved identifier is
// a recoverable condition during incremental model composition.
type UnresolvedError struct {
	Name string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unresolved identifier %q", e.Name)
}

// Eval evaluates the expression in quantity space. Identifiers resolve
// through look; literals are dimensionless; arithmetic follows quantity
// semantics, so dimensional inconsistencies surface as errors. Comparisons
// and boolean literals evaluate to dimensionless 0 or 1.
func (e *Expr) Eval(look LookupFunc) (units.Quantity, error) {
	return eval(e.node, look)
}

func eval(node hclsyntax.Expression, look LookupFunc) (units.Quantity, error) {
	switch n := node.(type) {
	case *hclsyntax.LiteralValueExpr:
		return literal(n.Val)

	case *hclsyntax.ScopeTraversalExpr:
		name := n.Traversal.RootName()
		if len(n.Traversal) > 1 {
			return units.Quantity{}, fmt.Errorf("attribute access on %q is not supported in equations", name)
		}
		q, ok := look(name)
		if !ok {
			return units.Quantity{}, &UnresolvedError{Name: name}
		}
		return q, nil

	case *hclsyntax.ParenthesesExpr:
		return eval(n.Expression, look)

	case *hclsyntax.UnaryOpExpr:
		return evalUnary(n, look)

	case *hclsyntax.BinaryOpExpr:
		return evalBinary(n, look)

	case *hclsyntax.ConditionalExpr:
		return evalConditional(n, look)

	case *hclsyntax.FunctionCallExpr:
		return evalCall(n, look)

	default:
		return units.Quantity{}, fmt.Errorf("unsupported syntax at %s", node.Range())
	}
}

func literal(v cty.Value) (units.Quantity, error) {
	switch v.Type() {
	case cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return units.Scalar(f), nil
	case cty.Bool:
		if v.True() {
			return units.Scalar(1), nil
		}
		return units.Scalar(0), nil
	default:
		return units.Quantity{}, fmt.Errorf("%s values are not supported in equations", v.Type().FriendlyName())
	}
}

func evalUnary(n *hclsyntax.UnaryOpExpr, look LookupFunc) (units.Quantity, error) {
	val, err := eval(n.Val, look)
	if err != nil {
		return units.Quantity{}, err
	}
	switch n.Op {
	case hclsyntax.OpNegate:
		return val.Neg(), nil
	case hclsyntax.OpLogicalNot:
		return boolQuantity(val.Value == 0), nil
	default:
		return units.Quantity{}, fmt.Errorf("unsupported unary operator at %s", n.Range())
	}
}

func evalBinary(n *hclsyntax.BinaryOpExpr, look LookupFunc) (units.Quantity, error) {
	lhs, err := eval(n.LHS, look)
	if err != nil {
		return units.Quantity{}, err
	}
	rhs, err := eval(n.RHS, look)
	if err != nil {
		return units.Quantity{}, err
	}

	switch n.Op {
	case hclsyntax.OpAdd:
		return lhs.Add(rhs)
	case hclsyntax.OpSubtract:
		return lhs.Sub(rhs)
	case hclsyntax.OpMultiply:
		return lhs.Mul(rhs), nil
	case hclsyntax.OpDivide:
		return lhs.Div(rhs), nil
	case hclsyntax.OpModulo:
		return lhs.Mod(rhs)
	case hclsyntax.OpEqual, hclsyntax.OpNotEqual,
		hclsyntax.OpGreaterThan, hclsyntax.OpGreaterThanOrEqual,
		hclsyntax.OpLessThan, hclsyntax.OpLessThanOrEqual:
		return compare(n.Op, lhs, rhs)
	case hclsyntax.OpLogicalAnd:
		return boolQuantity(lhs.Value != 0 && rhs.Value != 0), nil
	case hclsyntax.OpLogicalOr:
		return boolQuantity(lhs.Value != 0 || rhs.Value != 0), nil
	default:
		return units.Quantity{}, fmt.Errorf("unsupported binary operator at %s", n.Range())
	}
}

// compare evaluates comparison operators. The operands must share a
// dimension; comparing a voltage against a time is as meaningless as
// adding them.
func compare(op *hclsyntax.Operation, lhs, rhs units.Quantity) (units.Quantity, error) {
	if lhs.Dim != rhs.Dim {
		return units.Quantity{}, &units.MismatchError{Op: "compare", Left: lhs.Dim, Right: rhs.Dim}
	}
	var r bool
	switch op {
	case hclsyntax.OpEqual:
		r = lhs.Value == rhs.Value
	case hclsyntax.OpNotEqual:
		r = lhs.Value != rhs.Value
	case hclsyntax.OpGreaterThan:
		r = lhs.Value > rhs.Value
	case hclsyntax.OpGreaterThanOrEqual:
		r = lhs.Value >= rhs.Value
	case hclsyntax.OpLessThan:
		r = lhs.Value < rhs.Value
	case hclsyntax.OpLessThanOrEqual:
		r = lhs.Value <= rhs.Value
	}
	return boolQuantity(r), nil
}

// evalConditional evaluates a ? b : c. Both branches are always evaluated
// and must share a dimension, so that unit checking covers the branch not
// taken.
func evalConditional(n *hclsyntax.ConditionalExpr, look LookupFunc) (units.Quantity, error) {
	cond, err := eval(n.Condition, look)
	if err != nil {
		return units.Quantity{}, err
	}
	t, err := eval(n.TrueResult, look)
	if err != nil {
		return units.Quantity{}, err
	}
	f, err := eval(n.FalseResult, look)
	if err != nil {
		return units.Quantity{}, err
	}
	if t.Dim != f.Dim {
		return units.Quantity{}, &units.MismatchError{Op: "choose between", Left: t.Dim, Right: f.Dim}
	}
	if cond.Value != 0 {
		return t, nil
	}
	return f, nil
}

func evalCall(n *hclsyntax.FunctionCallExpr, look LookupFunc) (units.Quantity, error) {
	fn, ok := builtins[n.Name]
	if !ok {
		return units.Quantity{}, fmt.Errorf("unknown function %q at %s", n.Name, n.Range())
	}
	if len(n.Args) != fn.arity {
		return units.Quantity{}, fmt.Errorf("function %q takes %d argument(s), got %d", n.Name, fn.arity, len(n.Args))
	}

	args := make([]units.Quantity, len(n.Args))
	for i, argNode := range n.Args {
		arg, err := eval(argNode, look)
		if err != nil {
			return units.Quantity{}, err
		}
		args[i] = arg
	}
	result, err := fn.impl(args)
	if err != nil {
		return units.Quantity{}, fmt.Errorf("function %q: %w", n.Name, err)
	}
	return result, nil
}

func boolQuantity(b bool) units.Quantity {
	if b {
		return units.Scalar(1)
	}
	return units.Scalar(0)
}
