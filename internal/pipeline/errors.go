package pipeline

import (
	"errors"
	"fmt"
)

// ErrHalt is returned by a step that ended the run on purpose. The run
// status and error are already set; the remaining steps are skipped and
// Execute returns nil.
var ErrHalt = errors.New("pipeline halted")

// FatalError reports a failure after which the dimension file cannot be
// trusted, such as a failed rotation or a failed rollback.
type FatalError struct {
	// Op is the operation that failed: "rotate" or "rollback".
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements error.
func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal %s failure: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err contains a *FatalError.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
