package events

import (
	"context"
	"errors"
	"fmt"
)

// Error is a kinded error carried from services and engines up to the
// session's .error event. Wrap with %w to preserve the kind across layers.
type Error struct {
	Kind    string
	Message string
	Field   string
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError creates a kinded error.
func NewError(kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewValidationError creates a VALIDATION error for a specific input field.
func NewValidationError(field, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Field: field}
}

// WithDetails attaches structured detail to the error and returns it.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// AsErrorData converts any error into the payload of an .error event.
// Kinded errors keep their classification; deadline errors become TIMEOUT;
// everything else is INTERNAL with the message suppressed.
func AsErrorData(err error) ErrorData {
	var kinded *Error
	if errors.As(err, &kinded) {
		return ErrorData{
			Kind:    kinded.Kind,
			Message: kinded.Message,
			Field:   kinded.Field,
			Details: kinded.Details,
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorData{Kind: KindTimeout, Message: "operation timed out"}
	}
	if errors.Is(err, context.Canceled) {
		return ErrorData{Kind: KindTimeout, Message: "operation cancelled"}
	}
	return ErrorData{Kind: KindInternal, Message: "internal error"}
}
