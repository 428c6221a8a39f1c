// Package telemetry provides observability instrumentation for await.
//
// It integrates structured logging (zerolog), distributed tracing
// (OpenTelemetry), Prometheus metrics, and an async event stream around
// ensure calls. The Metrics type implements the engine's observer hook, so
// attempt counts, wait durations, and failure classes are recorded without
// the core depending on any telemetry type.
//
// Initialize at startup:
//
//	tel, err := telemetry.New(telemetry.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
// Wire into a wait:
//
//	res, err := deferred.Ensure(ctx, source, policy,
//	    deferred.WithLogger(tel.Logger.Z()),
//	    deferred.WithObserver(tel.Metrics.Observer("tcp")))
package telemetry
