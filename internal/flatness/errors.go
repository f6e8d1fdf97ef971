package flatness

import (
	"errors"
	"fmt"

	"github.com/san-kum/flatsim/internal/field"
	"github.com/san-kum/flatsim/internal/symbolic"
)

var (
	// ErrIO indicates the field file could not be read.
	ErrIO = field.ErrIO

	// ErrParse indicates a malformed field definition.
	ErrParse = field.ErrParse

	// ErrDomain indicates a singular configuration at the queried point.
	// Callers should hold their previous command.
	ErrDomain = symbolic.ErrDomain

	// ErrConfig indicates an engine used before initialization or built from
	// invalid vehicle parameters.
	ErrConfig = errors.New("flatness: engine not configured")
)

// DomainError reports the query and the quantity that became singular.
type DomainError struct {
	Quantity string
	Point    field.Point
	Err      error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("flatness: %s singular at %v: %v", e.Quantity, e.Point, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

func (e *DomainError) Is(target error) bool { return target == ErrDomain }

// ConfigError describes why an engine cannot be used.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "flatness: " + e.Reason }

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }
