package lifecycle

import (
	"errors"
	"fmt"
)

// Sentinel kinds for lifecycle errors.
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrExport           = errors.New("export failed")
)

// InvalidParameterError reports a rejected renewal or query parameter. The
// store is never mutated when it is returned.
type InvalidParameterError struct {
	Param  string
	Value  any
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Param, e.Value, e.Reason)
}

// Unwrap exposes the ErrInvalidParameter kind.
func (e *InvalidParameterError) Unwrap() error { return ErrInvalidParameter }
