package telemetry

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/openfroyo/await/pkg/deferred"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default config is valid", func(c *Config) {}, false},
		{"production config is valid", func(c *Config) { *c = *ProductionConfig() }, false},
		{"development config is valid", func(c *Config) { *c = *DevelopmentConfig() }, false},
		{"empty service name", func(c *Config) { c.ServiceName = "" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"bad exporter", func(c *Config) { c.Tracing.Enabled = true; c.Tracing.Exporter = "jaeger" }, true},
		{"bad sampling rate", func(c *Config) { c.Tracing.SamplingRate = 1.5 }, true},
		{"metrics without listen address", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.ListenAddress = "" }, true},
		{"events without buffer", func(c *Config) { c.Events.Enabled = true; c.Events.BufferSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMetricsObserverRecordsAttempts(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{
		Enabled:       true,
		ListenAddress: ":0",
		Namespace:     "await_test",
	})
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	obs := m.Observer("tcp")
	obs.Attempted(1, deferred.NewTransientError("not ready", nil))
	obs.Attempted(2, nil)
	obs.Completed(deferred.StatusResolved, 2, 120*time.Millisecond)

	if got := testutil.ToFloat64(m.waitsStarted.WithLabelValues("tcp")); got != 1 {
		t.Errorf("waits_started_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.attempts.WithLabelValues("tcp", "transient")); got != 1 {
		t.Errorf("attempts_total{result=transient} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.attempts.WithLabelValues("tcp", "success")); got != 1 {
		t.Errorf("attempts_total{result=success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.waitsCompleted.WithLabelValues("tcp", "resolved")); got != 1 {
		t.Errorf("waits_completed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.errorsByClass.WithLabelValues("transient")); got != 1 {
		t.Errorf("errors_by_class_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.activeWaits); got != 0 {
		t.Errorf("active_waits = %v, want 0 after completion", got)
	}
}

func TestDisabledMetricsAreNoOp(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	// None of these should panic on the no-op instance.
	obs := m.Observer("file")
	obs.Attempted(1, errors.New("boom"))
	obs.Completed(deferred.StatusTerminal, 1, time.Millisecond)
}

func TestEventPublisherDeliversEvents(t *testing.T) {
	ep, err := NewEventPublisher(EventsConfig{Enabled: true, BufferSize: 16})
	if err != nil {
		t.Fatalf("NewEventPublisher() error = %v", err)
	}

	var mu sync.Mutex
	var got []Event
	ep.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev)
	})

	ep.PublishWaitStarted("wait-1", "localhost:5432")
	ep.PublishWaitResolved("wait-1", "localhost:5432", 3, 40*time.Millisecond)
	ep.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("delivered %d events, want 2", len(got))
	}
	if got[0].Type != EventTypeWaitStarted {
		t.Errorf("first event type = %s, want %s", got[0].Type, EventTypeWaitStarted)
	}
	if got[1].Type != EventTypeWaitResolved {
		t.Errorf("second event type = %s, want %s", got[1].Type, EventTypeWaitResolved)
	}
	if got[0].ID == "" || got[0].ID == got[1].ID {
		t.Error("events should carry unique IDs")
	}
}

func TestDisabledEventPublisherDropsEvents(t *testing.T) {
	ep, err := NewEventPublisher(EventsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewEventPublisher() error = %v", err)
	}
	ep.PublishWaitStarted("wait-1", "target")
	ep.Close()
}
