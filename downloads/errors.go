package downloads

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies authorization failures so callers can tell "not
// purchased" from "link expired" from "temporarily locked out".
type Kind int

const (
	// KindNotFound means the project, session or file is absent.
	KindNotFound Kind = iota + 1
	// KindForbidden means entitlement or approval-status checks failed.
	KindForbidden
	// KindInvalidToken means the capability was malformed or badly signed.
	KindInvalidToken
	// KindExpired means the token or session is past its horizon.
	KindExpired
	// KindLocked means the lockout guard vetoed the attempt.
	KindLocked
	// KindUnauthenticated means no identity was presented at all.
	KindUnauthenticated
)

// Error is a classified authorization failure with a stable kind and a
// human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NotFoundError builds a KindNotFound error.
func NotFoundError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// ForbiddenError builds a KindForbidden error.
func ForbiddenError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// InvalidTokenError builds a KindInvalidToken error.
func InvalidTokenError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidToken, Message: fmt.Sprintf(format, args...)}
}

// ExpiredError builds a KindExpired error.
func ExpiredError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindExpired, Message: fmt.Sprintf(format, args...)}
}

// LockedError builds a KindLocked error.
func LockedError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindLocked, Message: fmt.Sprintf(format, args...)}
}

// UnauthenticatedError builds a KindUnauthenticated error.
func UnauthenticatedError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnauthenticated, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether the error is a download error of the given kind.
func IsKind(err error, kind Kind) bool {
	if e, ok := errors.Cause(err).(*Error); ok {
		return e.Kind == kind
	}
	return false
}
