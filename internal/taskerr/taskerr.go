package taskerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the UI-facing caller. Local precondition
// failures (validation, transition and linkage guards) never reach the
// network layer; remote kinds carry the store's message verbatim.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindRemoteRejected    Kind = "remote_rejected"
	KindNetworkFailure    Kind = "network_failure"
	KindNotFound          Kind = "not_found"
	KindAlreadyLinked     Kind = "already_linked"
	KindInvalidTransition Kind = "invalid_transition"
)

type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf returns the kind carried by err, or the empty string when err
// is not a taskerr.Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}

// Retryable reports whether a user-initiated retry of the same operation
// can reasonably succeed. Only transport-level failures qualify.
func Retryable(err error) bool {
	return IsKind(err, KindNetworkFailure)
}
