package deferred

import "context"

// Kind tags the result of a single resolution attempt.
type Kind string

const (
	// KindSuccess indicates the value resolved.
	KindSuccess Kind = "success"

	// KindRetryable indicates a transient failure; the value may still
	// become available.
	KindRetryable Kind = "retryable"

	// KindTerminal indicates a permanent failure; the value can never
	// become available under the current descriptor.
	KindTerminal Kind = "terminal"
)

// Outcome is the tagged result of one resolution attempt. Exactly one of
// Value (when Kind is KindSuccess) or Err (otherwise) is meaningful.
type Outcome[T any] struct {
	// Kind is the outcome classification.
	Kind Kind

	// Value is the resolved value when Kind is KindSuccess.
	Value T

	// Err is the classified failure when Kind is not KindSuccess.
	Err error
}

// Succeeded reports whether the attempt resolved a value.
func (o Outcome[T]) Succeeded() bool {
	return o.Kind == KindSuccess
}

// Attempt performs a single non-blocking resolution of d and tags the result.
// It never sleeps and never retries; callers wanting a bounded wait use
// Ensure instead.
func Attempt[T any](ctx context.Context, d Deferred[T]) Outcome[T] {
	v, err := d.Resolve(ctx)
	if err == nil {
		return Outcome[T]{Kind: KindSuccess, Value: v}
	}
	if ClassOf(err) == ClassTransient {
		return Outcome[T]{Kind: KindRetryable, Err: err}
	}
	return Outcome[T]{Kind: KindTerminal, Err: err}
}
