package deferred

import (
	"context"
	"fmt"
)

// Deferred describes how to obtain a value that may not yet be available.
//
// Resolve performs a single, bounded resolution attempt. It must not sleep or
// retry internally; all failure is communicated through the returned error,
// classified transient or permanent (see Error). Implementations must be
// reentrant: Resolve may be called repeatedly, possibly from concurrent
// Ensure loops, and may legitimately return different outcomes over time as
// the underlying resource appears and disappears.
type Deferred[T any] interface {
	// Resolve attempts to obtain the value now. It returns the value, or a
	// classified error when the value is not (or can never be) available.
	Resolve(ctx context.Context) (T, error)
}

// Func adapts a resource-accessor function to a Deferred. The function is the
// boundary contract for external platforms: it maps its own failure causes to
// transient or permanent at its edge. Unclassified errors are treated as
// permanent by the engine.
type Func[T any] func(ctx context.Context) (T, error)

// Resolve implements Deferred.
func (f Func[T]) Resolve(ctx context.Context) (T, error) {
	return f(ctx)
}

// value is a Deferred that always resolves to a fixed value.
type value[T any] struct {
	v T
}

// Value returns a Deferred that always resolves to v.
func Value[T any](v T) Deferred[T] {
	return value[T]{v: v}
}

// Resolve implements Deferred.
func (d value[T]) Resolve(ctx context.Context) (T, error) {
	return d.v, nil
}

// String implements fmt.Stringer.
func (d value[T]) String() string {
	return fmt.Sprintf("Value[%T]{%v}", d.v, d.v)
}

// null is a Deferred that always resolves to the zero value of its type.
type null[T any] struct{}

// Null returns a Deferred that always resolves to the zero value of T. It
// distinguishes "intentionally absent" from "not yet available": resolution
// succeeds immediately with the zero value.
func Null[T any]() Deferred[T] {
	return null[T]{}
}

// Resolve implements Deferred.
func (null[T]) Resolve(ctx context.Context) (T, error) {
	var zero T
	return zero, nil
}

// String implements fmt.Stringer.
func (null[T]) String() string {
	var zero T
	return fmt.Sprintf("Null[%T]", zero)
}

// describe renders a Deferred for diagnostics, preferring fmt.Stringer.
func describe[T any](d Deferred[T]) string {
	if s, ok := any(d).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", d)
}
