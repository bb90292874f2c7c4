package assumption

import "fmt"

// ValidationError reports a single malformed or out-of-domain input field.
// It aborts the run it was raised in; the engine never clamps inputs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
