package field

import (
	"errors"
	"fmt"
)

var (
	// ErrIO indicates the field definition could not be read.
	ErrIO = errors.New("field: cannot read definition")

	// ErrParse indicates a malformed field definition.
	ErrParse = errors.New("field: malformed definition")
)

// IOError wraps a failure to open or read a field file.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("field: read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// ParseError reports the offending line of a field definition. Line is
// 1-based and zero when the error concerns the definition as a whole.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("field: %v", e.Err)
	}
	return fmt.Sprintf("field: line %d (%q): %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
