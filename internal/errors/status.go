package errors

import (
	"errors"
	"fmt"
)

// StatusError is returned when an upstream API answers with a non-2xx status.
type StatusError struct {
	Source string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Source, e.Code)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Source, e.Code, e.Body)
}

// ServerSide reports whether the status is a 5xx.
func (e *StatusError) ServerSide() bool {
	return e.Code >= 500 && e.Code <= 599
}

// NewStatusError creates a StatusError for the given source and HTTP status.
func NewStatusError(source string, code int, body string) *StatusError {
	return &StatusError{Source: source, Code: code, Body: body}
}

// AsStatusError unwraps err into a StatusError if it contains one.
func AsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}
