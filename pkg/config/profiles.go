package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/await/pkg/deferred"
)

// DefaultProfileName is the profile used when no profile is requested.
const DefaultProfileName = "default"

var profileValidator = validator.New()

// BackoffSpec describes a backoff curve in profile files.
type BackoffSpec struct {
	// Kind selects the curve: constant, linear, or exponential.
	Kind string `yaml:"kind" validate:"required,oneof=constant linear exponential"`

	// Base is the per-attempt base delay.
	Base time.Duration `yaml:"base" validate:"gt=0"`

	// Cap bounds the computed delay. Zero means uncapped.
	Cap time.Duration `yaml:"cap,omitempty" validate:"min=0"`

	// Jitter randomizes each delay by up to half its value to avoid
	// synchronized polling across waiters.
	Jitter bool `yaml:"jitter,omitempty"`
}

// Build converts the spec into a deferred.Backoff.
func (s *BackoffSpec) Build() (deferred.Backoff, error) {
	var b deferred.Backoff
	switch s.Kind {
	case "constant":
		b = deferred.Constant(s.Base)
	case "linear":
		b = deferred.Linear(s.Base)
	case "exponential":
		b = deferred.Exponential(s.Base)
	default:
		return nil, fmt.Errorf("unknown backoff kind: %s", s.Kind)
	}
	if s.Cap > 0 {
		b = deferred.WithCap(s.Cap, b)
	}
	if s.Jitter {
		b = deferred.WithJitter(0.5, b)
	}
	return b, nil
}

// Profile is a named retry policy loaded from a profile file.
type Profile struct {
	// MaxWait is the maximum total wait duration.
	MaxWait time.Duration `yaml:"max_wait" validate:"min=0"`

	// PollInterval is the fixed delay between attempts. Ignored when a
	// backoff spec is present.
	PollInterval time.Duration `yaml:"poll_interval,omitempty" validate:"min=0"`

	// Backoff overrides PollInterval with a computed delay curve.
	Backoff *BackoffSpec `yaml:"backoff,omitempty"`

	// RetryOn lists the failure classes eligible for retry. Empty means
	// transient failures only.
	RetryOn []string `yaml:"retry_on,omitempty" validate:"dive,oneof=transient permanent"`
}

// ToPolicy converts the profile into a deferred.Policy.
func (p *Profile) ToPolicy() (deferred.Policy, error) {
	policy := deferred.Policy{
		MaxWait:      p.MaxWait,
		PollInterval: p.PollInterval,
	}
	if policy.PollInterval == 0 && p.Backoff == nil {
		policy.PollInterval = deferred.DefaultPollInterval
	}
	if p.Backoff != nil {
		b, err := p.Backoff.Build()
		if err != nil {
			return deferred.Policy{}, err
		}
		policy.Backoff = b
	}
	for _, c := range p.RetryOn {
		policy.RetryOn = append(policy.RetryOn, deferred.Class(c))
	}
	if err := policy.Validate(); err != nil {
		return deferred.Policy{}, err
	}
	return policy, nil
}

// ProfileSet holds the named profiles from a single profile file.
type ProfileSet struct {
	// Profiles maps profile names to their definitions.
	Profiles map[string]*Profile `yaml:"profiles" validate:"required,min=1"`
}

// LoadProfiles reads and validates a profile file.
func LoadProfiles(path string) (*ProfileSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}
	return ParseProfiles(data)
}

// ParseProfiles parses and validates profile YAML.
func ParseProfiles(data []byte) (*ProfileSet, error) {
	var set ProfileSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse profile YAML: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profiles: %w", err)
	}
	return &set, nil
}

// Validate checks every profile in the set.
func (s *ProfileSet) Validate() error {
	if err := profileValidator.Struct(s); err != nil {
		return err
	}
	for name, p := range s.Profiles {
		if p == nil {
			return fmt.Errorf("profile %s is empty", name)
		}
		if err := profileValidator.Struct(p); err != nil {
			return fmt.Errorf("profile %s: %w", name, err)
		}
		if p.Backoff != nil {
			if err := profileValidator.Struct(p.Backoff); err != nil {
				return fmt.Errorf("profile %s: backoff: %w", name, err)
			}
		}
	}
	return nil
}

// Get returns the named profile, or an error listing the available names.
func (s *ProfileSet) Get(name string) (*Profile, error) {
	p, ok := s.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %s not found (available: %v)", name, s.Names())
	}
	return p, nil
}

// Names returns the profile names in sorted order.
func (s *ProfileSet) Names() []string {
	names := make([]string, 0, len(s.Profiles))
	for name := range s.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
