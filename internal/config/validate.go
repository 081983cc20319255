package config

import (
	"fmt"
	"path"
	"strings"

	"github.com/rileyhilliard/hostfacts/internal/errors"
)

// ValidColors are the accepted values for the color key.
var ValidColors = []string{"auto", "always", "never"}

// Validate checks value ranges. Missing connection parameters are left to
// target.New so they are reported with the same wording wherever they come from.
func Validate(cfg *Config) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Port %d is out of range", cfg.Port),
			"Use a port between 1 and 65535, or 0 to take it from the host or SSH config.")
	}

	if err := validateRemotePath(cfg.RemotePath); err != nil {
		return err
	}

	if cfg.ConnectTimeout < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("connect_timeout can't be negative (got %s)", cfg.ConnectTimeout),
			"Use a duration like 10s, or 0 to wait as long as the network does.")
	}

	if !isValidColor(cfg.Color) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown color mode '%s'", cfg.Color),
			"Use one of: "+strings.Join(ValidColors, ", "))
	}

	return nil
}

func validateRemotePath(p string) error {
	if p == "" {
		return errors.New(errors.ErrConfig,
			"remote_path is empty",
			"Set it to an absolute path such as "+DefaultRemotePath)
	}
	if !path.IsAbs(p) && !strings.HasPrefix(p, "~/") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("remote_path '%s' must be absolute or start with ~/", p),
			"The collector is run by path on the server, e.g. "+DefaultRemotePath)
	}
	if strings.HasSuffix(p, "/") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("remote_path '%s' names a directory", p),
			"Include the file name, e.g. "+strings.TrimSuffix(p, "/")+"/hostfacts")
	}
	return nil
}

func isValidColor(c string) bool {
	for _, v := range ValidColors {
		if c == v {
			return true
		}
	}
	return false
}
