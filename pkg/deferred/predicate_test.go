package deferred

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPredicateFunc(t *testing.T) {
	even := PredicateFunc("even", func(v int) bool { return v%2 == 0 })

	if !even.Matches(4) {
		t.Error("Matches(4) = false, want true")
	}
	if even.Matches(3) {
		t.Error("Matches(3) = true, want false")
	}
	if even.Describe() != "even" {
		t.Errorf("Describe() = %q, want %q", even.Describe(), "even")
	}
}

func TestEqualPredicate(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate[[]int]
		v    []int
		want bool
	}{
		{"deep equal slices", Equal([]int{1, 2}), []int{1, 2}, true},
		{"different slices", Equal([]int{1, 2}), []int{2, 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred.Matches(tt.v); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNotNilPredicate(t *testing.T) {
	p := NotNil[*int]()

	if p.Matches(nil) {
		t.Error("Matches(nil) = true, want false")
	}
	v := 7
	if !p.Matches(&v) {
		t.Error("Matches(&v) = false, want true")
	}

	vals := NotNil[int]()
	if !vals.Matches(0) {
		t.Error("value types are never nil")
	}
}

func TestMatchedReportsMismatchAsTransient(t *testing.T) {
	d := Matched(Value(2), Equal(3))

	_, err := d.Resolve(context.Background())
	if !IsTransient(err) {
		t.Fatalf("Resolve() error = %v, want transient mismatch", err)
	}

	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Resolve() error = %v, want a MismatchError in the chain", err)
	}
	if mismatch.Last != 2 {
		t.Errorf("MismatchError.Last = %v, want 2", mismatch.Last)
	}
	if mismatch.Predicate != "equal to 3" {
		t.Errorf("MismatchError.Predicate = %q, want %q", mismatch.Predicate, "equal to 3")
	}
}

func TestMatchedSucceedsOncePredicateHolds(t *testing.T) {
	var counter atomic.Int64
	source := Func[int64](func(ctx context.Context) (int64, error) {
		return counter.Add(1) - 1, nil
	})
	d := Matched(source, Equal(int64(3)))

	res, err := Ensure(context.Background(), d, Policy{
		MaxWait:      10 * time.Second,
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Ensure() error = %v, want nil", err)
	}
	if res.Value != 3 {
		t.Errorf("Ensure() value = %d, want 3", res.Value)
	}
	// Counter starts at 0 and increments every attempt: 0, 1, 2, 3.
	if res.Attempts != 4 {
		t.Errorf("Ensure() attempts = %d, want 4", res.Attempts)
	}
}

func TestMatchedPropagatesBaseFailures(t *testing.T) {
	terminal := NewPermanentError("bad descriptor", nil)
	d := Matched(Func[int](func(ctx context.Context) (int, error) {
		return 0, terminal
	}), Equal(1))

	_, err := d.Resolve(context.Background())
	if !errors.Is(err, terminal) {
		t.Errorf("Resolve() error = %v, want base failure unchanged", err)
	}
}
