package deferred

import (
	"context"
	"fmt"
	"reflect"
)

// Predicate decides whether a resolved value satisfies a condition.
type Predicate[T any] interface {
	// Matches reports whether v satisfies the predicate.
	Matches(v T) bool

	// Describe returns a human-readable description of the condition, used
	// in diagnostics when the predicate never holds.
	Describe() string
}

// predicateFunc adapts a function and description to a Predicate.
type predicateFunc[T any] struct {
	fn   func(T) bool
	desc string
}

// PredicateFunc builds a Predicate from a function and a description.
func PredicateFunc[T any](desc string, fn func(T) bool) Predicate[T] {
	return predicateFunc[T]{fn: fn, desc: desc}
}

// Matches implements Predicate.
func (p predicateFunc[T]) Matches(v T) bool {
	return p.fn(v)
}

// Describe implements Predicate.
func (p predicateFunc[T]) Describe() string {
	return p.desc
}

// Equal returns a Predicate that holds when the value equals want, compared
// with reflect.DeepEqual.
func Equal[T any](want T) Predicate[T] {
	return predicateFunc[T]{
		fn:   func(v T) bool { return reflect.DeepEqual(v, want) },
		desc: fmt.Sprintf("equal to %v", want),
	}
}

// NotNil returns a Predicate that holds when the value is neither nil nor a
// nil-valued pointer, map, slice, channel, function, or interface.
func NotNil[T any]() Predicate[T] {
	return predicateFunc[T]{
		fn: func(v T) bool {
			rv := reflect.ValueOf(v)
			if !rv.IsValid() {
				return false
			}
			switch rv.Kind() {
			case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
				return !rv.IsNil()
			default:
				return true
			}
		},
		desc: "not nil",
	}
}

// MismatchError reports that a value resolved successfully but did not
// satisfy the predicate. It is transient: the value may still change.
type MismatchError struct {
	// Predicate is the description of the unsatisfied condition.
	Predicate string

	// Last is the most recently observed value.
	Last any
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("value %v does not satisfy predicate %q", e.Last, e.Predicate)
}

// match wraps a Deferred so that resolution only succeeds once the predicate
// holds for the resolved value.
type match[T any] struct {
	base Deferred[T]
	pred Predicate[T]
}

// Matched returns a Deferred that resolves base and succeeds only when the
// predicate holds for the resolved value. A resolved value that does not
// satisfy the predicate is reported as a transient MismatchError carrying the
// observed value; base failures of either class propagate unchanged.
func Matched[T any](base Deferred[T], pred Predicate[T]) Deferred[T] {
	return match[T]{base: base, pred: pred}
}

// Resolve implements Deferred.
func (d match[T]) Resolve(ctx context.Context) (T, error) {
	var zero T

	v, err := d.base.Resolve(ctx)
	if err != nil {
		return zero, err
	}

	if !d.pred.Matches(v) {
		return zero, NewTransientError("predicate not satisfied", &MismatchError{
			Predicate: d.pred.Describe(),
			Last:      v,
		}).WithSource(describe[T](d.base))
	}
	return v, nil
}

// String implements fmt.Stringer.
func (d match[T]) String() string {
	return fmt.Sprintf("Matched{pred=%q, base=%s}", d.pred.Describe(), describe[T](d.base))
}
