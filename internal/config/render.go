package config

import (
	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/hostfacts/internal/errors"
)

// Render returns cfg as the YAML document a config file would hold.
func Render(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Couldn't render config", "")
	}
	return out, nil
}
