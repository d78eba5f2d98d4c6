package config

import "fmt"

// ConfigurableField binds a nested Config to the Target that consumes it.
type ConfigurableField struct {
	Name string
	Doc  string

	target Target
	config *Config
	owner  *Config
}

// NewConfigurableField declares a nested-config field bound to target. A
// target without a config contract is a programming error and panics.
func NewConfigurableField(name, doc string, target Target) *ConfigurableField {
	cfg, err := newTargetConfig(target)
	if err != nil {
		panic(fmt.Sprintf("config: configurable field %q: %v", name, err))
	}
	return &ConfigurableField{Name: name, Doc: doc, target: target, config: cfg}
}

// ItemName implements Item.
func (f *ConfigurableField) ItemName() string { return f.Name }

// Target returns the implementation currently bound to the field.
func (f *ConfigurableField) Target() Target { return f.target }

// Config returns the nested Config of the bound implementation.
func (f *ConfigurableField) Config() *Config { return f.config }

// Retarget binds the field to a new implementation and resets the nested
// Config to that implementation's defaults. Both change together or not at
// all.
func (f *ConfigurableField) Retarget(target Target) error {
	if f.owner != nil && f.owner.frozen {
		return &ValidationError{Field: f.Name, Reason: "cannot retarget a frozen config"}
	}
	cfg, err := newTargetConfig(target)
	if err != nil {
		return &ValidationError{Field: f.Name, Reason: "cannot retarget", Err: err}
	}
	f.target = target
	f.config = cfg
	return nil
}

func (f *ConfigurableField) clone() Item {
	return &ConfigurableField{
		Name:   f.Name,
		Doc:    f.Doc,
		target: f.target,
		config: f.config.Copy(),
	}
}

func newTargetConfig(target Target) (*Config, error) {
	if target == nil {
		return nil, fmt.Errorf("target is nil")
	}
	cfg := target.NewConfig()
	if cfg == nil {
		return nil, fmt.Errorf("target %q does not provide a config", target.TargetName())
	}
	return cfg, nil
}
