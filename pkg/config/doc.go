// Package config loads named wait profiles from YAML files.
//
// A wait profile is a reusable retry policy: how long to keep trying, how
// often to poll, which backoff curve to apply, and which error classes are
// worth retrying. Profiles let operators tune wait behavior per environment
// without recompiling, e.g. a "ci" profile with a short budget and a
// "production" profile with generous exponential backoff.
//
// Profile files look like:
//
//	profiles:
//	  default:
//	    max_wait: 60s
//	    poll_interval: 250ms
//	  production:
//	    max_wait: 5m
//	    poll_interval: 1s
//	    backoff:
//	      kind: exponential
//	      base: 500ms
//	      cap: 30s
//	      jitter: true
//
// Loaded profiles convert to deferred.Policy via Profile.ToPolicy.
package config
