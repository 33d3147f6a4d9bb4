package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// LoadYAML decodes a Config from YAML bytes and applies SetDefaults. A host
// that wants config-as-a-file (rather than building a Config by hand) can
// use this instead of an in-memory literal.
func LoadYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	cfg.SetDefaults()
	return &cfg, nil
}

// ToYAML renders cfg back to YAML, e.g. for a host to persist an in-memory
// Config it built programmatically.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("config: marshal yaml: %w", err)
	}
	return data, nil
}
