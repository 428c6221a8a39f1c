package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/openfroyo/await/pkg/deferred"
	"github.com/openfroyo/await/pkg/telemetry"
)

// waitReport is the JSON output of a successful wait.
type waitReport struct {
	WaitID   string `json:"wait_id"`
	Kind     string `json:"kind"`
	Target   string `json:"target"`
	Value    string `json:"value"`
	Attempts int    `json:"attempts"`
	Elapsed  string `json:"elapsed"`
}

// buildTelemetry assembles telemetry from the global flags.
func buildTelemetry() (*telemetry.Telemetry, error) {
	cfg := telemetry.DefaultConfig()
	if verbose {
		cfg.Logging.Level = "debug"
		cfg.Events.Enabled = true
	}
	if jsonOutput {
		cfg.Logging.Format = "json"
	}
	if metricsListen != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddress = metricsListen
	}
	if traceExporter != "" {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Exporter = traceExporter
		cfg.Tracing.Endpoint = otlpEndpoint
	}

	tel, err := telemetry.New(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Events.Enabled {
		eventLog := tel.Logger.NewComponentLogger("events")
		tel.Events.Subscribe(func(ev telemetry.Event) {
			eventLog.WithField("event", ev.Type).WithWaitID(ev.WaitID).Debug(ev.Message)
		})
	}
	if cfg.Metrics.Enabled {
		go func() {
			if err := tel.Metrics.StartMetricsServer(); err != nil {
				tel.Logger.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	return tel, nil
}

// runWait drives a single wait: policy from flags, telemetry wiring, the
// engine loop, and result reporting. describe renders the resolved value
// for output.
func runWait[T any](ctx context.Context, cmd *cobra.Command, kind, target string, d deferred.Deferred[T], describe func(T) string) error {
	policy, err := buildPolicy(cmd)
	if err != nil {
		return err
	}

	tel, err := buildTelemetry()
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	waitID := uuid.New().String()
	log := tel.Logger.NewComponentLogger("wait").WithWaitID(waitID).WithTarget(target)
	ctx = tel.WithContext(ctx)

	ctx, span := tel.Tracer.StartWaitSpan(ctx, waitID, kind, target)
	defer span.End()

	log.WithField("max_wait", policy.MaxWait.String()).Infof("Waiting for %s", target)
	tel.Events.PublishWaitStarted(waitID, target)

	res, err := deferred.Ensure(ctx, d, policy,
		deferred.WithLogger(log.Z()),
		deferred.WithObserver(tel.Metrics.Observer(kind)))
	if err != nil {
		telemetry.RecordError(span, err)
		var deadline *deferred.DeadlineError
		if errors.As(err, &deadline) {
			tel.Events.PublishWaitFailed(waitID, target, err, deadline.Attempts, deadline.Elapsed)
		} else {
			tel.Events.PublishWaitFailed(waitID, target, err, 0, 0)
		}
		log.WithError(err).Error("Wait failed")
		return err
	}

	tel.Events.PublishWaitResolved(waitID, target, res.Attempts, res.Elapsed)
	log.WithField("attempts", res.Attempts).
		WithField("elapsed", res.Elapsed.String()).
		Info("Resolved")

	if jsonOutput {
		report := waitReport{
			WaitID:   waitID,
			Kind:     kind,
			Target:   target,
			Value:    describe(res.Value),
			Attempts: res.Attempts,
			Elapsed:  res.Elapsed.String(),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("%s is available (%s, %d attempts in %s)\n",
		target, describe(res.Value), res.Attempts, res.Elapsed.Round(time.Millisecond))
	return nil
}
