package deferred

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestValueResolvesImmediately(t *testing.T) {
	d := Value(42)

	for i := 0; i < 3; i++ {
		v, err := d.Resolve(context.Background())
		if err != nil {
			t.Fatalf("Resolve() error = %v, want nil", err)
		}
		if v != 42 {
			t.Errorf("Resolve() = %d, want 42", v)
		}
	}
}

func TestNullResolvesToZeroValue(t *testing.T) {
	d := Null[*int]()

	v, err := d.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil", err)
	}
	if v != nil {
		t.Errorf("Resolve() = %v, want nil", v)
	}
}

func TestFuncAdaptsAccessor(t *testing.T) {
	var calls atomic.Int32
	d := Func[string](func(ctx context.Context) (string, error) {
		if calls.Add(1) < 3 {
			return "", NewTransientError("not ready", nil)
		}
		return "ready", nil
	})

	for i := 0; i < 2; i++ {
		if _, err := d.Resolve(context.Background()); !IsTransient(err) {
			t.Fatalf("Resolve() error = %v, want transient", err)
		}
	}
	v, err := d.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil", err)
	}
	if v != "ready" {
		t.Errorf("Resolve() = %q, want %q", v, "ready")
	}
}

func TestInvokeAppliesOperationAfterBaseResolves(t *testing.T) {
	base := Value([]int{1, 2, 3})
	d := Invoke(base, "len", func(ctx context.Context, v []int) (int, error) {
		return len(v), nil
	})

	v, err := d.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil", err)
	}
	if v != 3 {
		t.Errorf("Resolve() = %d, want 3", v)
	}
}

func TestInvokeNeverRunsOperationOnBaseFailure(t *testing.T) {
	tests := []struct {
		name          string
		baseErr       error
		wantTransient bool
	}{
		{
			name:          "transient base propagates transient",
			baseErr:       NewTransientError("not yet available", nil),
			wantTransient: true,
		},
		{
			name:          "permanent base propagates permanent",
			baseErr:       NewPermanentError("gone for good", nil),
			wantTransient: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var invoked atomic.Int32
			base := Func[int](func(ctx context.Context) (int, error) {
				return 0, tt.baseErr
			})
			d := Invoke(base, "double", func(ctx context.Context, v int) (int, error) {
				invoked.Add(1)
				return v * 2, nil
			})

			_, err := d.Resolve(context.Background())
			if !errors.Is(err, tt.baseErr) {
				t.Errorf("Resolve() error = %v, want base error propagated unchanged", err)
			}
			if got := IsTransient(err); got != tt.wantTransient {
				t.Errorf("IsTransient() = %v, want %v", got, tt.wantTransient)
			}
			if invoked.Load() != 0 {
				t.Errorf("operation invoked %d times, want 0", invoked.Load())
			}
		})
	}
}

func TestInvokeClassifiesOperationErrors(t *testing.T) {
	base := Value(1)

	plain := Invoke(base, "fail", func(ctx context.Context, v int) (int, error) {
		return 0, errors.New("selector blew up")
	})
	if _, err := plain.Resolve(context.Background()); !IsPermanent(err) {
		t.Errorf("unclassified operation error should be permanent, got %v", err)
	}

	marked := Invoke(base, "flaky", func(ctx context.Context, v int) (int, error) {
		return 0, Transient(errors.New("counter not published yet"))
	})
	if _, err := marked.Resolve(context.Background()); !IsTransient(err) {
		t.Errorf("explicitly transient operation error should stay transient, got %v", err)
	}
}

func TestInvokeRunsAtMostOncePerAttempt(t *testing.T) {
	var invoked atomic.Int32
	d := Invoke(Value(5), "count", func(ctx context.Context, v int) (int, error) {
		invoked.Add(1)
		return v, nil
	})

	if _, err := d.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if invoked.Load() != 1 {
		t.Errorf("operation invoked %d times in one attempt, want 1", invoked.Load())
	}
}

func TestChainedLayersShortCircuit(t *testing.T) {
	terminal := NewPermanentError("fenced", nil)
	var outerInvoked atomic.Int32

	base := Func[int](func(ctx context.Context) (int, error) {
		return 0, terminal
	})
	mid := Invoke(base, "select", func(ctx context.Context, v int) (int, error) {
		outerInvoked.Add(1)
		return v, nil
	})
	outer := Matched(mid, Equal(1))

	_, err := outer.Resolve(context.Background())
	if !errors.Is(err, terminal) {
		t.Errorf("Resolve() error = %v, want inner terminal error", err)
	}
	if !IsPermanent(err) {
		t.Error("terminal failure should stay permanent through every layer")
	}
	if outerInvoked.Load() != 0 {
		t.Errorf("outer operation invoked %d times, want 0", outerInvoked.Load())
	}
}
