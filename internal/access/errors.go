package access

import (
	"errors"
	"fmt"
)

// Error is a domain error with a stable machine-readable code. The delivery
// layer maps codes to transport status; the message is safe to show to users.
type Error struct {
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Code + ": " + e.Message + ": " + e.cause.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches errors by code so callers can compare against the exported
// sentinels with errors.Is regardless of wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrBadgeNotFound         = &Error{Code: "BADGE_NOT_FOUND", Message: "unknown badge number"}
	ErrBadgeExpired          = &Error{Code: "BADGE_EXPIRED", Message: "badge has expired"}
	ErrUserNotFound          = &Error{Code: "USER_NOT_FOUND", Message: "badge is not assigned to anyone"}
	ErrReaderNotFound        = &Error{Code: "BADGEUSE_NOT_FOUND", Message: "unknown reader device"}
	ErrNoZonesConfigured     = &Error{Code: "NO_ZONES_CONFIGURED", Message: "reader opens no zones"}
	ErrZoneAccessDenied      = &Error{Code: "ZONE_ACCESS_DENIED", Message: "no active assignment grants access to this reader"}
	ErrSecondaryAccessDenied = &Error{Code: "SECONDARY_ACCESS_DENIED", Message: "secondary zone access requires being clocked in at the principal service"}
	ErrAccessDenied          = &Error{Code: "ACCESS_DENIED", Message: "person belongs to another organization"}
	ErrInvalidType           = &Error{Code: "INVALID_TYPE", Message: "unknown clock event type"}
	ErrInvalidDateRange      = &Error{Code: "INVALID_DATE_RANGE", Message: "start date is after end date"}
	ErrInvalidDateFormat     = &Error{Code: "INVALID_DATE_FORMAT", Message: "dates must be formatted YYYY-MM-DD"}
	ErrNoPrincipalService    = &Error{Code: "NO_PRINCIPAL_SERVICE", Message: "person has no active principal service assignment"}
	ErrInternal              = &Error{Code: "INTERNAL_ERROR", Message: "internal error"}
)

// CodeOf extracts the stable code from any error, falling back to
// INTERNAL_ERROR for unexpected failures.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternal.Code
}

// internalErr wraps an unexpected failure (datastore down, programming error)
// without leaking detail through the public boundary.
func internalErr(err error) *Error {
	return &Error{Code: ErrInternal.Code, Message: ErrInternal.Message, cause: err}
}

func (e *Error) withMessage(format string, args ...any) *Error {
	return &Error{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}
