package domain

import "fmt"

// ValidationError reports a missing or malformed client supplied value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// NotFoundError is returned when an operation targets an unknown task id.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.ID)
}

// StoreUnavailableError wraps failures of the underlying persistence.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e StoreUnavailableError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e StoreUnavailableError) Unwrap() error { return e.Err }

// Unavailable wraps err as a StoreUnavailableError unless it already is a
// domain error.
func Unavailable(op string, err error) error {
	switch err.(type) {
	case nil:
		return nil
	case ValidationError, NotFoundError, StoreUnavailableError:
		return err
	}
	return StoreUnavailableError{Op: op, Err: err}
}
