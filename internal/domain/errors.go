package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindConflict    ErrorKind = "conflict"
	KindNotFound    ErrorKind = "not_found"
	KindAuth        ErrorKind = "auth"
	KindForbidden   ErrorKind = "forbidden"
	KindUnavailable ErrorKind = "unavailable"
	KindInternal    ErrorKind = "internal"
)

// AppError is the error type returned across service boundaries. Two
// AppErrors match under errors.Is when their kinds match and, if the
// target carries a code, the codes match too.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// WithError returns a copy of e wrapping err.
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// WithMessage returns a copy of e with a more specific message.
func (e *AppError) WithMessage(format string, args ...any) *AppError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

func newError(kind ErrorKind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

func NewValidationError(code, message string) *AppError {
	return newError(KindValidation, code, message)
}

func NewConflictError(code, message string) *AppError {
	return newError(KindConflict, code, message)
}

func NewNotFoundError(code, message string) *AppError {
	return newError(KindNotFound, code, message)
}

func NewAuthError(code, message string) *AppError {
	return newError(KindAuth, code, message)
}

func NewForbiddenError(code, message string) *AppError {
	return newError(KindForbidden, code, message)
}

func NewUnavailableError(code, message string) *AppError {
	return newError(KindUnavailable, code, message)
}

// Kind sentinels.
var (
	ErrValidation  = &AppError{Kind: KindValidation}
	ErrConflict    = &AppError{Kind: KindConflict}
	ErrNotFound    = &AppError{Kind: KindNotFound}
	ErrAuth        = &AppError{Kind: KindAuth}
	ErrForbidden   = &AppError{Kind: KindForbidden}
	ErrUnavailable = &AppError{Kind: KindUnavailable}
)

var (
	ErrSlotUnavailable      = NewConflictError("SLOT_UNAVAILABLE", "the selected time is no longer available, please pick another slot")
	ErrInvalidServiceConfig = NewValidationError("INVALID_SERVICE_CONFIG", "service duration must be positive")
	ErrSlotInPast           = NewValidationError("SLOT_IN_PAST", "the selected time is in the past or too soon")
	ErrOutsideWorkingHours  = NewValidationError("OUTSIDE_WORKING_HOURS", "the selected time is outside the barber's working hours")
	ErrServiceNotFound      = NewValidationError("SERVICE_NOT_FOUND", "the barber does not offer this service")
	ErrInvalidTransition    = NewValidationError("INVALID_STATUS_TRANSITION", "appointment status cannot be changed this way")
	ErrEmptyMessage         = NewValidationError("EMPTY_MESSAGE", "message content must not be empty")
	ErrMessageTooLong       = NewValidationError("MESSAGE_TOO_LONG", "message content is too long")
	ErrInvalidDate          = NewValidationError("INVALID_DATE", "date must be in YYYY-MM-DD format")
	ErrInvalidID            = NewValidationError("INVALID_ID", "malformed identifier")

	ErrBarberNotFound      = NewNotFoundError("BARBER_NOT_FOUND", "barber not found")
	ErrAppointmentNotFound = NewNotFoundError("APPOINTMENT_NOT_FOUND", "appointment not found")
	ErrChatNotFound        = NewNotFoundError("CHAT_NOT_FOUND", "chat not found")
	ErrUserNotFound        = NewNotFoundError("USER_NOT_FOUND", "user not found")

	ErrUnauthorized = NewAuthError("UNAUTHORIZED", "authentication required")
	ErrInvalidToken = NewAuthError("INVALID_TOKEN", "invalid or expired token")

	ErrNotParticipant = NewForbiddenError("NOT_PARTICIPANT", "you are not a participant of this chat")
	ErrNotOwner       = NewForbiddenError("NOT_OWNER", "you cannot modify this appointment")
	ErrBarberOnly     = NewForbiddenError("BARBER_ONLY", "this action requires a barber account")

	ErrBookingBusy         = NewUnavailableError("BOOKING_BUSY", "the booking system is busy, please retry")
	ErrStorageNotAvailable = NewUnavailableError("STORAGE_UNAVAILABLE", "file storage is not configured")
)

// KindOf returns the kind of the first AppError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
