package model

import (
	"errors"
	"fmt"
)

// ErrMalformedInput is matched by every error caused by a missing, truncated
// or out-of-range input file entry.
var ErrMalformedInput = errors.New("malformed input")

// InputError locates a malformed entry inside an input source.
type InputError struct {
	Source string
	Line   int
	Err    error
}

func (e *InputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Is makes every InputError match ErrMalformedInput.
func (e *InputError) Is(target error) bool { return target == ErrMalformedInput }
