package deferred

import (
	"errors"
	"fmt"
	"time"
)

// Class represents the classification of a resolution failure.
type Class string

const (
	// ClassTransient indicates the resource is not currently available but
	// may become so. Examples: endpoint not yet listening, process not yet
	// registered, value not yet matching a predicate.
	ClassTransient Class = "transient"

	// ClassPermanent indicates the resource can never become available under
	// the current descriptor. Examples: malformed address, type mismatch,
	// authentication rejected.
	ClassPermanent Class = "permanent"
)

// Error is a classified resolution failure.
// nolint:revive // Error is intentionally the canonical failure type of this package
type Error struct {
	// Class is the failure classification for retry logic.
	Class Class `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Source describes the deferred value that produced the error, if known.
	Source string `json:"source,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("[%s] %s (source=%s): %s", e.Class, e.Message, e.Source, e.unwrapMessage())
	}
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Class, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Class, e.Message, e.unwrapMessage())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Message == t.Message
}

// WithSource adds source context to an error.
func (e *Error) WithSource(source string) *Error {
	e.Source = source
	return e
}

// NewTransientError creates a new transient error.
func NewTransientError(message string, err error) *Error {
	return &Error{
		Class:   ClassTransient,
		Message: message,
		Err:     err,
	}
}

// NewPermanentError creates a new permanent error.
func NewPermanentError(message string, err error) *Error {
	return &Error{
		Class:   ClassPermanent,
		Message: message,
		Err:     err,
	}
}

// Transient wraps err as a transient resolution failure. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) {
		return err
	}
	return &Error{Class: ClassTransient, Message: "temporarily unavailable", Err: err}
}

// Permanent wraps err as a permanent resolution failure. A nil err stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	if IsPermanent(err) {
		return err
	}
	return &Error{Class: ClassPermanent, Message: "permanently unavailable", Err: err}
}

// IsTransient returns true if the error is classified as transient.
func IsTransient(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ClassTransient
	}
	return false
}

// IsPermanent returns true if the error is classified as permanent.
func IsPermanent(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ClassPermanent
	}
	return false
}

// ClassOf returns the classification of err. Unclassified errors are
// permanent: the engine is conservative about retrying unknown failures.
func ClassOf(err error) Class {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ClassPermanent
}

// DeadlineError is synthesized by Ensure when transient failures persist past
// the policy's maximum wait. It carries the last observed transient cause.
type DeadlineError struct {
	// MaxWait is the wait budget that was exhausted.
	MaxWait time.Duration

	// Attempts is the number of resolution attempts made.
	Attempts int

	// Elapsed is the time spent before giving up.
	Elapsed time.Duration

	// LastErr is the most recent transient failure.
	LastErr error
}

// Error implements the error interface.
func (e *DeadlineError) Error() string {
	return fmt.Sprintf("deadline exceeded after %s (%d attempts, max wait %s): %v",
		e.Elapsed.Round(time.Millisecond), e.Attempts, e.MaxWait, e.LastErr)
}

// Unwrap returns the last transient failure observed before the deadline.
func (e *DeadlineError) Unwrap() error {
	return e.LastErr
}

// IsDeadlineExceeded returns true if the error is a wait-budget exhaustion.
func IsDeadlineExceeded(err error) bool {
	var e *DeadlineError
	return errors.As(err, &e)
}
