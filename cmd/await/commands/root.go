package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/openfroyo/await/pkg/config"
	"github.com/openfroyo/await/pkg/deferred"
)

var (
	// Global flags
	configPath    string
	profileName   string
	timeoutFlag   time.Duration
	intervalFlag  time.Duration
	backoffKind   string
	jitterFlag    bool
	verbose       bool
	jsonOutput    bool
	metricsListen string
	traceExporter string
	otlpEndpoint  string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "await",
		Short: "Await - wait for remote resources to become available",
		Long: `Await polls a remote resource until it becomes available or a time
budget is exhausted.

Failures are classified as transient (retried) or permanent (fail fast):
a connection refusal is worth retrying while a malformed address never is.

Probes:
  - TCP endpoints accepting connections
  - HTTP endpoints returning an expected status
  - Files appearing on the local filesystem
  - Remote commands succeeding over SSH

Retry behavior is tuned with --timeout, --interval and --backoff, or loaded
from a named profile in a YAML file via --config and --profile.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "wait profile file path")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", config.DefaultProfileName, "profile name to use from the profile file")
	rootCmd.PersistentFlags().DurationVarP(&timeoutFlag, "timeout", "t", deferred.DefaultMaxWait, "maximum total wait duration")
	rootCmd.PersistentFlags().DurationVarP(&intervalFlag, "interval", "i", deferred.DefaultPollInterval, "delay between attempts")
	rootCmd.PersistentFlags().StringVar(&backoffKind, "backoff", "", "backoff curve: constant, linear or exponential (default: fixed interval)")
	rootCmd.PersistentFlags().BoolVar(&jitterFlag, "jitter", false, "randomize backoff delays")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address (e.g. :9090)")
	rootCmd.PersistentFlags().StringVar(&traceExporter, "trace", "", "trace exporter: otlp, stdout or none")
	rootCmd.PersistentFlags().StringVar(&otlpEndpoint, "otlp-endpoint", "localhost:4317", "OTLP trace exporter endpoint")

	// Add subcommands
	rootCmd.AddCommand(newTCPCommand())
	rootCmd.AddCommand(newHTTPCommand())
	rootCmd.AddCommand(newFileCommand())
	rootCmd.AddCommand(newSSHCommand())

	return rootCmd
}

// buildPolicy assembles the retry policy from the profile file and flags.
// Explicit command-line flags override the selected profile.
func buildPolicy(cmd *cobra.Command) (deferred.Policy, error) {
	policy := deferred.DefaultPolicy()

	if configPath != "" {
		set, err := config.LoadProfiles(configPath)
		if err != nil {
			return deferred.Policy{}, err
		}
		profile, err := set.Get(profileName)
		if err != nil {
			return deferred.Policy{}, err
		}
		policy, err = profile.ToPolicy()
		if err != nil {
			return deferred.Policy{}, err
		}
	}

	if cmd.Flags().Changed("timeout") {
		policy.MaxWait = timeoutFlag
	}
	if cmd.Flags().Changed("interval") {
		policy.PollInterval = intervalFlag
	}
	if cmd.Flags().Changed("backoff") {
		spec := config.BackoffSpec{
			Kind:   backoffKind,
			Base:   policy.PollInterval,
			Jitter: jitterFlag,
		}
		b, err := spec.Build()
		if err != nil {
			return deferred.Policy{}, err
		}
		policy.Backoff = b
	}

	if err := policy.Validate(); err != nil {
		return deferred.Policy{}, err
	}
	return policy, nil
}
