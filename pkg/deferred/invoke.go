package deferred

import (
	"context"
	"fmt"
)

// invocation applies a named operation to a value that itself must first be
// resolved. The operation and its captured arguments are supplied up front at
// construction time as an explicit descriptor; there is no runtime call
// interception.
type invocation[B, T any] struct {
	base Deferred[B]
	op   string
	fn   func(ctx context.Context, base B) (T, error)
}

// Invoke returns a Deferred that resolves base and, only on success, applies
// the named operation to the resolved value.
//
// The operation runs at most once per outer resolution attempt and never
// speculatively: if base reports a transient or permanent failure, that
// failure propagates unchanged and the operation is not invoked. Any error
// returned by the operation is classified permanent unless the operation
// explicitly marked it transient (see Transient).
func Invoke[B, T any](base Deferred[B], op string, fn func(ctx context.Context, base B) (T, error)) Deferred[T] {
	return invocation[B, T]{base: base, op: op, fn: fn}
}

// Resolve implements Deferred.
func (d invocation[B, T]) Resolve(ctx context.Context) (T, error) {
	var zero T

	base, err := d.base.Resolve(ctx)
	if err != nil {
		// Propagate the base outcome unchanged: transient stays transient,
		// permanent stays permanent, and the operation is never invoked.
		return zero, err
	}

	v, err := d.fn(ctx, base)
	if err != nil {
		if IsTransient(err) {
			return zero, err
		}
		return zero, NewPermanentError(fmt.Sprintf("operation %q failed", d.op), err).
			WithSource(describe[B](d.base))
	}
	return v, nil
}

// String implements fmt.Stringer.
func (d invocation[B, T]) String() string {
	return fmt.Sprintf("Invoke{op=%s, base=%s}", d.op, describe[B](d.base))
}
