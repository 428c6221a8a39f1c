// Package deferred provides the deferred-resolution and bounded-retry engine
// for await.
//
// A Deferred describes how to obtain a value that may not yet exist, may
// appear and disappear, or may need repeated polling before a condition
// holds. A single resolution attempt either succeeds with a value or fails
// with a classified error: transient failures may self-heal and are eligible
// for retry, permanent failures never will and stop a wait immediately.
// Classification is the policy decision point and happens at the resource
// accessor boundary, not inside the engine; unclassified failures are treated
// as permanent.
//
// # Building deferred values
//
//	d := deferred.Value(42)                    // always resolves to 42
//	d := deferred.Null[*Conn]()                // intentionally absent
//	d := deferred.Func[int](accessor)          // external resource accessor
//
// Dependent resolution applies an operation to a value that itself must first
// resolve, without nested retry logic. The operation runs at most once per
// outer attempt and only after the base resolved:
//
//	count := deferred.Invoke(conn, "queueDepth", func(ctx context.Context, c *Conn) (int, error) {
//	    return c.QueueDepth(ctx)
//	})
//
// Predicate matching turns "value eventually satisfies a condition" into an
// ordinary resolution, reporting mismatches as transient:
//
//	ready := deferred.Matched(count, deferred.Equal(0))
//
// Layers stack arbitrarily; an inner permanent failure short-circuits every
// outer layer, and an inner transient failure stays transient, so the engine
// always sees a single coherent signal.
//
// # Waiting
//
//	res, err := deferred.Ensure(ctx, ready, deferred.DefaultPolicy())
//
// Ensure runs synchronously on the calling goroutine and performs no
// background work. Deferred values and policies are immutable and may be
// shared freely across concurrent ensure calls.
package deferred
