package symbolic

import (
	"errors"
	"fmt"
)

var (
	// ErrDomain marks a numeric evaluation outside the domain of an operator
	// (zero denominator, negative radicand, atan2(0, 0), non-finite result).
	ErrDomain = errors.New("symbolic: domain error")

	// ErrEval marks an expression that cannot be evaluated in the given
	// context (unbound variable, unloaded or out-of-range flat output).
	ErrEval = errors.New("symbolic: evaluation error")

	// ErrShape indicates incompatible matrix dimensions.
	ErrShape = errors.New("symbolic: dimension mismatch")
)

// DomainError reports where evaluation left an operator's domain.
type DomainError struct {
	Op     string
	Expr   string
	Value  float64
	Reason string
}

func (e *DomainError) Error() string {
	if e.Expr != "" {
		return fmt.Sprintf("symbolic: %s: %s in %s", e.Op, e.Reason, e.Expr)
	}
	return fmt.Sprintf("symbolic: %s: %s (%g)", e.Op, e.Reason, e.Value)
}

func (e *DomainError) Is(target error) bool { return target == ErrDomain }

// EvalError reports an expression that could not be evaluated.
type EvalError struct {
	Expr   string
	Reason string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("symbolic: cannot evaluate %s: %s", e.Expr, e.Reason)
}

func (e *EvalError) Is(target error) bool { return target == ErrEval }
