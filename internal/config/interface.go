package config

import "context"

// Target is the discriminator of a ConfigurableField: the implementation a
// nested Config is bound to, and the factory for that implementation's
// default Config.
type Target interface {
	// TargetName returns the stable name of the implementation, used when
	// comparing configs and when retargeting by name.
	TargetName() string

	// NewConfig returns a fresh Config holding the implementation's
	// defaults. A nil result means the implementation has no config
	// contract and cannot be bound.
	NewConfig() *Config
}

// TargetResolver looks up a Target by its TargetName.
type TargetResolver func(name string) (Target, error)

// Source is the interface for a format-specific override source, such as an
// HCL file or a single command-line assignment.
type Source interface {
	// Apply writes the overrides held by the source into cfg. Retargeting by
	// name goes through resolve.
	Apply(ctx context.Context, cfg *Config, resolve TargetResolver) error
}
