// Package eventually treats "a predicate eventually holds for a resolving
// value" as a first-class bounded-wait operation.
//
// It wraps a deferred value and a predicate into a predicate-matched
// resolution, drives it through the ensure engine, and converts any failure
// into a single diagnostic report: the predicate description, the last value
// observed (when the source ever resolved at all), the last failure cause,
// the attempt count, and the elapsed time. That is enough for a human to
// tell whether the resource never appeared or appeared with the wrong value.
package eventually

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openfroyo/await/pkg/deferred"
)

// Failure is the diagnostic report for an assertion that did not hold within
// the wait budget.
type Failure struct {
	// Predicate is the description of the condition that never held.
	Predicate string

	// LastValue is the most recently observed value, meaningful only when
	// Observed is true.
	LastValue any

	// Observed reports whether the source ever resolved a value, even
	// though the predicate did not hold for it.
	Observed bool

	// Cause is the last failure from the ensure engine.
	Cause error

	// Attempts is the number of resolution attempts made.
	Attempts int

	// Elapsed is the time spent waiting.
	Elapsed time.Duration
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Observed {
		return fmt.Sprintf("condition %q did not hold within %s (%d attempts, last value %v): %v",
			f.Predicate, f.Elapsed.Round(time.Millisecond), f.Attempts, f.LastValue, f.Cause)
	}
	return fmt.Sprintf("condition %q did not hold within %s (%d attempts, value never resolved): %v",
		f.Predicate, f.Elapsed.Round(time.Millisecond), f.Attempts, f.Cause)
}

// Unwrap returns the underlying engine failure.
func (f *Failure) Unwrap() error {
	return f.Cause
}

// That waits until the predicate holds for the resolving value, under the
// given policy. On success it returns the matching value. On failure it
// returns a *Failure carrying full diagnostic context; it never retries
// beyond what the ensure engine already performed.
func That[T any](ctx context.Context, d deferred.Deferred[T], pred deferred.Predicate[T], policy deferred.Policy, opts ...deferred.Option) (T, error) {
	res, err := deferred.Ensure(ctx, deferred.Matched(d, pred), policy, opts...)
	if err == nil {
		return res.Value, nil
	}

	var zero T
	failure := &Failure{
		Predicate: pred.Describe(),
		Cause:     err,
		Attempts:  res.Attempts,
		Elapsed:   res.Elapsed,
	}

	// A mismatch in the chain means the source resolved but the predicate
	// did not hold; surface what was seen last.
	var mismatch *deferred.MismatchError
	if errors.As(err, &mismatch) {
		failure.Observed = true
		failure.LastValue = mismatch.Last
	}

	return zero, failure
}

// TestingT is the subset of *testing.T the assertion needs.
type TestingT interface {
	Helper()
	Errorf(format string, args ...any)
}

// Assert waits like That and reports a failure on t instead of returning it.
// It returns the matching value and true on success. The zero value and
// false are returned once the wait budget is exhausted or resolution failed
// permanently.
func Assert[T any](t TestingT, ctx context.Context, d deferred.Deferred[T], pred deferred.Predicate[T], policy deferred.Policy, opts ...deferred.Option) (T, bool) {
	t.Helper()

	v, err := That(ctx, d, pred, policy, opts...)
	if err != nil {
		t.Errorf("eventually: %v", err)
		var zero T
		return zero, false
	}
	return v, true
}
