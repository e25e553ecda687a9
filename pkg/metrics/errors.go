package metrics

import (
	"context"
	"errors"
)

// Error type labels for RecordErrorByComponent.
const (
	ErrorTypeCanceled = "canceled"
	ErrorTypeTimeout  = "timeout"
	ErrorTypeInternal = "internal"
)

// ErrorType maps err to a low-cardinality label value.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return ErrorTypeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	default:
		return ErrorTypeInternal
	}
}

// RecordError counts err against component, classified by ErrorType. Nil is ignored.
func RecordError(component string, err error) {
	if err == nil {
		return
	}
	RecordErrorByComponent(component, ErrorType(err))
}
