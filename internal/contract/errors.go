package contract

import (
	"errors"
	"fmt"

	"github.com/huangsam/pagegate/schema"
)

// ErrorKind represents the type of error.
type ErrorKind int

// Error kinds. Load problems are not listed here because they never abort a run;
// they are recorded in the report as schema.LoadError values.
const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindStorage
	KindGateFailure
)

// PagegateError is the error type that carries an exit code.
type PagegateError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *PagegateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PagegateError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the process exit code for this error.
func (e *PagegateError) ExitCode() int {
	switch e.Kind {
	case KindConfig:
		return schema.ExitConfigError
	case KindStorage:
		return schema.ExitStorageError
	default:
		return schema.ExitGateFailed
	}
}

// Configf creates a configuration error.
func Configf(format string, args ...any) error {
	return &PagegateError{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

// WrapConfig wraps an error as a configuration error.
func WrapConfig(err error, message string) error {
	return &PagegateError{Kind: KindConfig, Message: message, Cause: err}
}

// WrapStorage wraps an error as a storage error.
func WrapStorage(err error, message string) error {
	return &PagegateError{Kind: KindStorage, Message: message, Cause: err}
}

// GateFailure creates the error returned when a verdict did not pass.
func GateFailure(verdict schema.GateVerdict) error {
	return &PagegateError{Kind: KindGateFailure, Message: "gate failed: " + verdict.Reason}
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind ErrorKind) bool {
	var pe *PagegateError
	return errors.As(err, &pe) && pe.Kind == kind
}

// ExitCodeFor returns the exit code for an error. Unclassified errors exit with 1.
func ExitCodeFor(err error) int {
	if err == nil {
		return schema.ExitPass
	}
	var pe *PagegateError
	if errors.As(err, &pe) {
		return pe.ExitCode()
	}
	return schema.ExitGateFailed
}
