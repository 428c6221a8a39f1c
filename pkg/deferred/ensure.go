package deferred

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Status describes how an ensure call finished.
type Status string

const (
	// StatusResolved indicates the value resolved within the wait budget.
	StatusResolved Status = "resolved"

	// StatusTerminal indicates a permanent failure stopped the wait early.
	StatusTerminal Status = "terminal"

	// StatusDeadline indicates transient failures persisted past the
	// maximum wait.
	StatusDeadline Status = "deadline"

	// StatusCanceled indicates the context was canceled during a sleep.
	StatusCanceled Status = "canceled"
)

// Observer receives engine progress notifications. Implementations must be
// safe for concurrent use; a single observer may be shared by many ensure
// calls.
type Observer interface {
	// Attempted is called after each resolution attempt. err is nil when
	// the attempt succeeded.
	Attempted(attempt int, err error)

	// Completed is called exactly once when the ensure call finishes.
	Completed(status Status, attempts int, elapsed time.Duration)
}

// Result carries the outcome of a completed ensure call. Attempts and
// Elapsed are populated on both success and failure.
type Result[T any] struct {
	// Value is the resolved value on success.
	Value T

	// Attempts is the number of resolution attempts made.
	Attempts int

	// Elapsed is the time spent in the ensure loop.
	Elapsed time.Duration
}

// Option configures an ensure call.
type Option func(*options)

type options struct {
	log      zerolog.Logger
	observer Observer
	clock    Clock
}

// WithLogger sets the logger for per-attempt debug logging. The engine is
// silent by default.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithObserver sets an observer for engine progress notifications.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithClock sets the clock for time operations. Useful for testing.
func WithClock(clock Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func newOptions(opts []Option) options {
	o := options{
		log:   zerolog.Nop(),
		clock: realClock{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Ensure repeatedly resolves d under the policy until it succeeds, fails
// permanently, or the wait budget is exhausted. It is a blocking bounded
// wait: the first attempt is made immediately, the loop sleeps only between
// attempts, and a sleep is never longer than the remaining budget, so the
// final attempt happens at or before MaxWait elapses.
//
// On success the result carries the value. A permanent failure is returned
// unchanged on the attempt that produced it, regardless of remaining budget.
// When retryable failures persist past MaxWait, Ensure returns a
// *DeadlineError carrying the last observed cause. Context cancellation
// during a sleep surfaces as a permanent failure wrapping ctx.Err().
//
// Deadline arithmetic uses the clock sampled once at the start; every
// comparison is against elapsed-since-start, never a fresh wall-clock read.
func Ensure[T any](ctx context.Context, d Deferred[T], p Policy, opts ...Option) (Result[T], error) {
	if err := p.Validate(); err != nil {
		return Result[T]{}, NewPermanentError("ensure rejected", err)
	}

	cfg := newOptions(opts)
	start := cfg.clock.Now()

	var lastErr error
	attempts := 0

	finish := func(status Status, elapsed time.Duration) {
		if cfg.observer != nil {
			cfg.observer.Completed(status, attempts, elapsed)
		}
	}

	for {
		attempts++
		v, err := d.Resolve(ctx)
		elapsed := cfg.clock.Now().Sub(start)

		if cfg.observer != nil {
			cfg.observer.Attempted(attempts, err)
		}

		if err == nil {
			cfg.log.Debug().
				Int("attempts", attempts).
				Dur("elapsed", elapsed).
				Msg("deferred value resolved")
			finish(StatusResolved, elapsed)
			return Result[T]{Value: v, Attempts: attempts, Elapsed: elapsed}, nil
		}

		class := ClassOf(err)
		lastErr = err

		cfg.log.Debug().
			Int("attempt", attempts).
			Str("class", string(class)).
			Err(err).
			Msg("resolution attempt failed")

		if !p.retries(class) {
			finish(StatusTerminal, elapsed)
			return Result[T]{Attempts: attempts, Elapsed: elapsed}, err
		}

		remaining := p.MaxWait - elapsed
		if remaining <= 0 {
			finish(StatusDeadline, elapsed)
			return Result[T]{Attempts: attempts, Elapsed: elapsed}, &DeadlineError{
				MaxWait:  p.MaxWait,
				Attempts: attempts,
				Elapsed:  elapsed,
				LastErr:  lastErr,
			}
		}

		delay := p.delay(attempts)
		if delay > remaining {
			// Cap the final sleep so the last attempt lands at the budget
			// boundary instead of overshooting it.
			delay = remaining
		}

		if err := cfg.clock.Sleep(ctx, delay); err != nil {
			elapsed = cfg.clock.Now().Sub(start)
			finish(StatusCanceled, elapsed)
			return Result[T]{Attempts: attempts, Elapsed: elapsed},
				NewPermanentError("ensure canceled", err)
		}
	}
}
