package health

import (
	"errors"
	"fmt"
)

var (
	// ErrCheckFailed indicates a health check returned an error.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a health check timed out.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckPanic indicates a health check panicked.
	ErrCheckPanic = errors.New("health: check panicked")

	// ErrCheckCanceled indicates the run was canceled before the check completed.
	ErrCheckCanceled = errors.New("health: check canceled")

	// ErrInvalidCheck indicates a nil checker or one without a name.
	ErrInvalidCheck = errors.New("health: invalid check")

	// ErrDuplicateCheck indicates two checks in one runner share a name.
	ErrDuplicateCheck = errors.New("health: duplicate check name")

	// ErrRunnerNotFound indicates no runner is registered under a name.
	ErrRunnerNotFound = errors.New("health: runner not found")

	// ErrDuplicateRunner indicates a runner name was registered twice.
	ErrDuplicateRunner = errors.New("health: duplicate runner name")

	// ErrRegistrySealed indicates a registration after the registry was sealed.
	ErrRegistrySealed = errors.New("health: registry sealed")

	// ErrSerialization indicates a report could not be serialized.
	ErrSerialization = errors.New("health: serialization failed")
)

// FailureKind classifies how a check execution failed.
type FailureKind int

const (
	// FailureError means the check returned an error.
	FailureError FailureKind = iota
	// FailurePanic means the check panicked.
	FailurePanic
	// FailureTimeout means the check exceeded its deadline.
	FailureTimeout
	// FailureCanceled means the caller canceled the run.
	FailureCanceled
)

func (k FailureKind) String() string {
	switch k {
	case FailureError:
		return "error"
	case FailurePanic:
		return "panic"
	case FailureTimeout:
		return "timeout"
	case FailureCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// CheckExecutionFailure describes a check that could not run to completion.
// The Runner records it in Result.Err; it is never returned from Run.
type CheckExecutionFailure struct {
	Check string
	Kind  FailureKind
	Err   error
}

// Description is the text reported for the failed check.
func (f *CheckExecutionFailure) Description() string {
	switch f.Kind {
	case FailureTimeout:
		return "timed out"
	case FailureCanceled:
		return "canceled"
	default:
		if f.Err == nil || f.Err.Error() == "" {
			return "check failed"
		}
		return f.Err.Error()
	}
}

func (f *CheckExecutionFailure) Error() string {
	return fmt.Sprintf("health: check %q: %s", f.Check, f.Description())
}

// Unwrap returns the kind sentinel and the underlying error.
func (f *CheckExecutionFailure) Unwrap() []error {
	var sentinel error
	switch f.Kind {
	case FailurePanic:
		sentinel = ErrCheckPanic
	case FailureTimeout:
		sentinel = ErrCheckTimeout
	case FailureCanceled:
		sentinel = ErrCheckCanceled
	default:
		sentinel = ErrCheckFailed
	}
	if f.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, f.Err}
}

// ConfigurationError is returned when a runner lookup names an unregistered runner.
type ConfigurationError struct {
	Name string
}

func (e *ConfigurationError) Error() string {
	return "no runner registered for name: " + e.Name
}

// Unwrap returns ErrRunnerNotFound.
func (e *ConfigurationError) Unwrap() error {
	return ErrRunnerNotFound
}

// SerializationError is returned when a check's data payload cannot be
// encoded as JSON.
type SerializationError struct {
	Check string
	Key   string
	Err   error
}

func (e *SerializationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("health: serialize check %q: %v", e.Check, e.Err)
	}
	return fmt.Sprintf("health: serialize check %q data key %q: %v", e.Check, e.Key, e.Err)
}

// Unwrap returns ErrSerialization and the underlying error.
func (e *SerializationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSerialization}
	}
	return []error{ErrSerialization, e.Err}
}
