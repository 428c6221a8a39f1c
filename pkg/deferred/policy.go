package deferred

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Default retry policy values.
const (
	// DefaultMaxWait is the default maximum wait duration for Ensure.
	DefaultMaxWait = 60 * time.Second

	// DefaultPollInterval is the default fixed delay between attempts.
	DefaultPollInterval = 250 * time.Millisecond
)

// Policy governs how long and how often Ensure retries. Policies are
// configuration values: created once, immutable by convention, and reusable
// across many concurrent ensure calls.
type Policy struct {
	// MaxWait is the maximum total wait duration. Zero means a single
	// attempt with no retries.
	MaxWait time.Duration `validate:"min=0"`

	// PollInterval is the fixed delay between attempts. Ignored when
	// Backoff is set. Must be positive when MaxWait is positive.
	PollInterval time.Duration `validate:"min=0"`

	// Backoff, when set, computes the delay from the attempt count instead
	// of PollInterval. It should be monotonically non-decreasing.
	Backoff Backoff `validate:"-"`

	// RetryOn lists the failure classes eligible for retry. When empty,
	// only transient failures are retried.
	RetryOn []Class `validate:"dive,oneof=transient permanent"`
}

var policyValidator = validator.New()

// DefaultPolicy returns a policy with the package defaults: a 60 second
// maximum wait with a fixed 250ms poll interval, retrying transient
// failures only.
func DefaultPolicy() Policy {
	return Policy{
		MaxWait:      DefaultMaxWait,
		PollInterval: DefaultPollInterval,
	}
}

// Validate checks the policy invariants.
func (p Policy) Validate() error {
	if err := policyValidator.Struct(p); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	if p.MaxWait > 0 && p.Backoff == nil && p.PollInterval <= 0 {
		return fmt.Errorf("invalid policy: poll interval must be positive when max wait is positive")
	}
	return nil
}

// retries reports whether the policy retries failures of the given class.
func (p Policy) retries(c Class) bool {
	if len(p.RetryOn) == 0 {
		return c == ClassTransient
	}
	for _, rc := range p.RetryOn {
		if rc == c {
			return true
		}
	}
	return false
}

// delay returns the sleep before the next attempt, where attempt is the
// 1-based count of attempts made so far.
func (p Policy) delay(attempt int) time.Duration {
	if p.Backoff != nil {
		return p.Backoff.Delay(attempt)
	}
	return p.PollInterval
}
