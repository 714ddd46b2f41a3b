package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind is the stable machine-readable name of a failure, surfaced to API clients.
type Kind string

const (
	KindInvalidInterval       Kind = "InvalidInterval"
	KindHorizonExceeded       Kind = "HorizonExceeded"
	KindOutsideOperatingHours Kind = "OutsideOperatingHours"
	KindVehicleTypeMismatch   Kind = "VehicleTypeMismatch"
	KindSlotConflict          Kind = "SlotConflict"
	KindNotFound              Kind = "NotFound"
	KindForbidden             Kind = "Forbidden"
	KindInvalidRequest        Kind = "InvalidRequest"
	KindUnauthorized          Kind = "Unauthorized"
	KindRateLimited           Kind = "RateLimited"
	KindServiceError          Kind = "ServiceError"
)

var statusByKind = map[Kind]int{
	KindInvalidInterval:       http.StatusUnprocessableEntity,
	KindHorizonExceeded:       http.StatusUnprocessableEntity,
	KindOutsideOperatingHours: http.StatusUnprocessableEntity,
	KindVehicleTypeMismatch:   http.StatusUnprocessableEntity,
	KindSlotConflict:          http.StatusConflict,
	KindNotFound:              http.StatusNotFound,
	KindForbidden:             http.StatusForbidden,
	KindInvalidRequest:        http.StatusBadRequest,
	KindUnauthorized:          http.StatusUnauthorized,
	KindRateLimited:           http.StatusTooManyRequests,
	KindServiceError:          http.StatusInternalServerError,
}

// EngineError is a business-rule or service failure with an associated kind.
type EngineError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is matches any EngineError of the same kind, so the Err* values below work with errors.Is.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	return ok && t.Kind == e.Kind
}

// HTTPStatus returns the status code the API answers with for this error.
func (e *EngineError) HTTPStatus() int {
	if code, ok := statusByKind[e.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// New creates a new EngineError with the given kind and message.
func New(kind Kind, message string) *EngineError {
	return &EngineError{Kind: kind, Message: message}
}

// Wrap attaches a cause to a new EngineError.
func Wrap(kind Kind, message string, err error) *EngineError {
	return &EngineError{Kind: kind, Message: message, Err: err}
}

// As extracts the EngineError from err. Anything else becomes a generic service error
// so storage details never leak to callers.
func As(err error) *EngineError {
	var ee *EngineError
	if stderrors.As(err, &ee) {
		return ee
	}
	return Wrap(KindServiceError, "service unavailable, please retry later", err)
}

// KindOf returns the kind of err, KindServiceError for foreign errors.
func KindOf(err error) Kind {
	return As(err).Kind
}

var (
	ErrInvalidInterval       = New(KindInvalidInterval, "start time must be before end time")
	ErrHorizonExceeded       = New(KindHorizonExceeded, "bookings are only accepted from now up to 48 hours ahead")
	ErrOutsideOperatingHours = New(KindOutsideOperatingHours, "bookings must fall within operating hours")
	ErrVehicleTypeMismatch   = New(KindVehicleTypeMismatch, "vehicle type does not match the slot")
	ErrSlotConflict          = New(KindSlotConflict, "slot is not available for the requested interval")
	ErrNotFound              = New(KindNotFound, "not found")
	ErrForbidden             = New(KindForbidden, "forbidden")
)

// Helpers for common errors
var (
	ErrUnauthorized   = func(msg string) *EngineError { return New(KindUnauthorized, msg) }
	ErrInvalidRequest = func(msg string) *EngineError { return New(KindInvalidRequest, msg) }
	ErrNotFoundf      = func(format string, args ...any) *EngineError {
		return New(KindNotFound, fmt.Sprintf(format, args...))
	}
)
