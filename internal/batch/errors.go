package batch

import (
	"errors"
	"fmt"
)

// ErrOverrideMultiple is returned when an override identifier is given for more than one file.
var ErrOverrideMultiple = errors.New("an override identifier applies to a single file")

// FatalError aborts a run when job state can no longer be recorded.
// Report holds what was completed before the failure.
type FatalError struct {
	Err    error
	Report *Report
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("batch aborted: %v", e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }
