package deferred

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantTransient bool
		wantPermanent bool
		wantClass     Class
	}{
		{
			name:          "transient error",
			err:           NewTransientError("not yet registered", nil),
			wantTransient: true,
			wantClass:     ClassTransient,
		},
		{
			name:          "permanent error",
			err:           NewPermanentError("malformed identifier", nil),
			wantPermanent: true,
			wantClass:     ClassPermanent,
		},
		{
			name:          "wrapped transient error",
			err:           fmt.Errorf("resolving endpoint: %w", NewTransientError("connection refused", nil)),
			wantTransient: true,
			wantClass:     ClassTransient,
		},
		{
			name:          "unclassified error defaults to permanent",
			err:           errors.New("something unexpected"),
			wantPermanent: false,
			wantClass:     ClassPermanent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.wantTransient {
				t.Errorf("IsTransient() = %v, want %v", got, tt.wantTransient)
			}
			if got := IsPermanent(tt.err); got != tt.wantPermanent {
				t.Errorf("IsPermanent() = %v, want %v", got, tt.wantPermanent)
			}
			if got := ClassOf(tt.err); got != tt.wantClass {
				t.Errorf("ClassOf() = %v, want %v", got, tt.wantClass)
			}
		})
	}
}

func TestTransientWrapping(t *testing.T) {
	cause := errors.New("connection refused")

	err := Transient(cause)
	if !IsTransient(err) {
		t.Error("Transient() should produce a transient error")
	}
	if !errors.Is(err, cause) {
		t.Error("Transient() should preserve the error chain")
	}

	// Wrapping an already-transient error must not add a layer
	if again := Transient(err); again != err {
		t.Error("Transient() should be idempotent for transient errors")
	}

	if Transient(nil) != nil {
		t.Error("Transient(nil) should be nil")
	}
}

func TestPermanentWrapping(t *testing.T) {
	cause := errors.New("no such host")

	err := Permanent(cause)
	if !IsPermanent(err) {
		t.Error("Permanent() should produce a permanent error")
	}
	if !errors.Is(err, cause) {
		t.Error("Permanent() should preserve the error chain")
	}

	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestErrorMessageIncludesSource(t *testing.T) {
	err := NewTransientError("not available", errors.New("boom")).WithSource("Value[int]{7}")

	msg := err.Error()
	if want := "source=Value[int]{7}"; !contains(msg, want) {
		t.Errorf("Error() = %q, want it to contain %q", msg, want)
	}
	if !contains(msg, "transient") {
		t.Errorf("Error() = %q, want it to contain the class", msg)
	}
}

func TestDeadlineError(t *testing.T) {
	cause := NewTransientError("still waiting", nil)
	err := &DeadlineError{
		MaxWait:  200 * time.Millisecond,
		Attempts: 4,
		Elapsed:  210 * time.Millisecond,
		LastErr:  cause,
	}

	if !IsDeadlineExceeded(err) {
		t.Error("IsDeadlineExceeded() should be true for a DeadlineError")
	}
	if IsDeadlineExceeded(cause) {
		t.Error("IsDeadlineExceeded() should be false for a plain transient error")
	}
	if !errors.Is(err, cause) {
		t.Error("DeadlineError should unwrap to the last transient cause")
	}
	if IsDeadlineExceeded(errors.New("other")) {
		t.Error("IsDeadlineExceeded() should be false for unrelated errors")
	}
}

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}
