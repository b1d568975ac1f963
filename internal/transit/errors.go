package transit

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindPermissionDenied    ErrorKind = "PermissionDenied"
	KindNetworkError        ErrorKind = "NetworkError"
	KindNoStationsAvailable ErrorKind = "NoStationsAvailable"
	KindDecodeError         ErrorKind = "DecodeError"
)

// Error is the terminal failure of a pipeline run.
type Error struct {
	Kind    ErrorKind
	Message string
	// StatusCode is set for NetworkError caused by a non-2xx response.
	StatusCode int
	// Raw holds the response text for DecodeError.
	Raw string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewPermissionDeniedError(err error) *Error {
	return &Error{
		Kind:    KindPermissionDenied,
		Message: "Permission to access location was denied",
		Err:     err,
	}
}

func NewNetworkError(statusCode int, err error) *Error {
	return &Error{
		Kind:       KindNetworkError,
		Message:    "Network response was not ok",
		StatusCode: statusCode,
		Err:        err,
	}
}

func NewNoStationsError() *Error {
	return &Error{
		Kind:    KindNoStationsAvailable,
		Message: "No nearby stations available",
	}
}

func NewDecodeError(raw string, err error) *Error {
	return &Error{
		Kind:    KindDecodeError,
		Message: "Could not read station list from server response",
		Raw:     raw,
		Err:     err,
	}
}

// KindOf extracts the kind from err if it is, or wraps, an *Error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
