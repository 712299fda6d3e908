package eqn

import (
	"fmt"

	"github.com/maksv/neurite/internal/units"
)

// SyntaxError reports a definition line that does not match any of the four
// recognized shapes, or whose expression or unit fails to parse.
type SyntaxError struct {
	Line   int
	Text   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error on line %d: %s (%q)", e.Line, e.Reason, e.Text)
}

// NamingConflictError reports two definitions of the same variable name,
// either within one string or across a merge.
type NamingConflictError struct {
	Name string
}

func (e *NamingConflictError) Error() string {
	return fmt.Sprintf("naming conflict: variable %q is defined more than once", e.Name)
}

// DimensionError reports a right-hand side whose dimension does not match
// the definition's declared unit. For a differential equation the check is
// against [unit]/[time] and the failure is phrased as a homogeneity problem.
type DimensionError struct {
	Var           string
	Differential  bool
	Expected, Got units.Dim

	// Cause is set when the right-hand side itself failed dimensional
	// evaluation, e.g. adding a voltage to a time.
	Cause error
}

func (e *DimensionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("dimension error in equation for %q: %v", e.Var, e.Cause)
	}
	if e.Differential {
		return fmt.Sprintf("differential equation for %q is not homogeneous: right-hand side has dimension %s, want %s",
			e.Var, e.Got, e.Expected)
	}
	return fmt.Sprintf("equation for %q has dimension %s, but its declared unit has dimension %s",
		e.Var, e.Got, e.Expected)
}

func (e *DimensionError) Unwrap() error {
	return e.Cause
}
