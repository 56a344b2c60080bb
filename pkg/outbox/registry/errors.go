package registry

import "fmt"

// NonRetryableError marks a row the relay must stop retrying: a malformed
// payload or an event nobody can route will never succeed later.
type NonRetryableError struct {
	Err error
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func permanent(format string, args ...any) NonRetryableError {
	return NonRetryableError{Err: fmt.Errorf(format, args...)}
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }
