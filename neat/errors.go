package neat

import "fmt"

// ConfigurationError indicates a structural misconfiguration detected at
// construction or declaration time: a domain object built without an owner,
// conflicting attribute modes, or invalid generation/sequence bounds.
// It is never produced mid-run.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "config error: " + e.Reason
}

// configErrorf builds a ConfigurationError with a formatted reason.
func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// HookArityError indicates a single-call invocation (CallOne, CallNamedOne,
// Sole) was attempted on a hook chain that does not contain exactly one
// registered callable.
type HookArityError struct {
	Point      string // extension point name, empty for anonymous chains
	Registered int    // number of callables present at invocation time
}

func (e *HookArityError) Error() string {
	point := e.Point
	if point == "" {
		point = "hook chain"
	}
	return fmt.Sprintf("%s: single-call invocation requires exactly one hook, have %d", point, e.Registered)
}

// RunFailure wraps an error raised by a delegated phase of the generational
// state machine. The controller does not retry failed phases; the failure is
// surfaced to the Run caller tagged with the phase and generation in which
// it occurred.
type RunFailure struct {
	Phase      string
	Generation int
	Err        error
}

func (e *RunFailure) Error() string {
	return fmt.Sprintf("generation %d: %s phase failed: %v", e.Generation, e.Phase, e.Err)
}

func (e *RunFailure) Unwrap() error {
	return e.Err
}
