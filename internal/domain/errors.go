package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for the transport layer.
type Kind string

const (
	KindValidation      Kind = "validation_error"
	KindUnauthenticated Kind = "authentication_error"
	KindForbidden       Kind = "authorization_error"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindDependency      Kind = "dependency_error"
	KindInternal        Kind = "internal_error"
)

// Error is the error type returned by the application services.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

var (
	// ErrUnauthenticated is returned when no valid identity accompanies a call.
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "authentication required"}
	// ErrInvalidCredentials is returned when email or password do not match.
	ErrInvalidCredentials = &Error{Kind: KindUnauthenticated, Message: "invalid email or password"}
	// ErrForbidden is returned when the actor's role is not allowed to perform an operation.
	ErrForbidden = &Error{Kind: KindForbidden, Message: "insufficient permissions"}
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = &Error{Kind: KindNotFound, Message: "user not found"}
	// ErrTopicNotFound indicates the topic does not exist or is not visible.
	ErrTopicNotFound = &Error{Kind: KindNotFound, Message: "topic not found"}
	// ErrQuestionNotFound indicates the inbox question does not exist.
	ErrQuestionNotFound = &Error{Kind: KindNotFound, Message: "question not found"}
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = &Error{Kind: KindConflict, Message: "email already registered"}
	// ErrAlreadySubmitted is returned on a second submission for the same topic.
	ErrAlreadySubmitted = &Error{Kind: KindConflict, Message: "responses already submitted for this topic"}
	// ErrAlreadyAnswered is returned when a teacher responds to an answered question.
	ErrAlreadyAnswered = &Error{Kind: KindConflict, Message: "question already answered"}
)

// Validation builds a field-level validation error.
func Validation(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Dependency wraps a failure of an external collaborator.
func Dependency(name string, err error) *Error {
	return &Error{Kind: KindDependency, Message: name + " unavailable", Err: err}
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
