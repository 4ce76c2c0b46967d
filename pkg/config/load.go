package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/theoryforge/lagrangia/pkg/errors"
)

// Load reads a YAML configuration file over the defaults and validates the
// result. A missing file is not an error: the defaults are returned so the
// binary runs out of the box.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.WithFields(
			errors.Wrap(err, errors.InvalidInput, "failed to read config file"),
			errors.Fields{"path": path},
		)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.InvalidInput, "failed to parse config YAML"),
			errors.Fields{"path": path},
		)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
