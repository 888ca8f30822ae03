package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindValidation   ErrorKind = "VALIDATION_ERROR"
	KindConflict     ErrorKind = "CONFLICT"
)

// Error is a business error surfaced to the caller as-is. NotFound is also
// used for resources the caller may not see, so existence is never leaked.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) *Error {
	return newError(KindUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newError(KindForbidden, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func Validation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

// KindOf reports the kind of a domain error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

var (
	ErrProductNotFound       = NotFound("Product not found")
	ErrCommentNotFound       = NotFound("Comment not found")
	ErrNotificationNotFound  = NotFound("Notification not found")
	ErrAdminRequired         = Forbidden("Admin access required")
	ErrNotProductOwner       = Forbidden("Unauthorized - not product owner")
	ErrBotDetected           = Unauthorized("Bot verification failed")
	ErrProductNotDeleted     = Conflict("Product is not deleted")
	ErrProductAlreadyRemoved = Conflict("Product is already removed")
	ErrAlreadyAppealed       = Conflict("An appeal has already been submitted for this removal")
	ErrNotAppealable         = Forbidden("This product removal cannot be appealed")
)
