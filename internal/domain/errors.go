package domain

import (
	"errors"
	"fmt"
)

// ErrUpstream marks failures of the external analytics service: transport
// errors, unexpected responses, or an open circuit breaker.
var ErrUpstream = errors.New("analytics service failure")

// ValidationError is returned for request parameters outside their allowed range.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NoImageryError reports that no usable scenes exist for a year in the study
// area. It is a property of the request, not an upstream failure.
type NoImageryError struct {
	Year int
	Base bool // true when Year is the base year, false for the compare year
}

func (e *NoImageryError) Error() string {
	if e.Base {
		return fmt.Sprintf("No suitable imagery found for base year %d", e.Year)
	}
	return fmt.Sprintf("No suitable imagery found for current year %d", e.Year)
}

// IsClientError reports whether err should be answered as a bad request.
func IsClientError(err error) bool {
	var ve *ValidationError
	var ni *NoImageryError
	return errors.As(err, &ve) || errors.As(err, &ni)
}
