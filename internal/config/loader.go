package config

import (
	"os"
	"path/filepath"

	"github.com/rileyhilliard/hostfacts/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the config file looked up in the working directory.
	ConfigFileName = ".hostfacts.yaml"
	// GlobalConfigDir is the directory for the per-user config.
	GlobalConfigDir = ".config/hostfacts"
	// GlobalConfigFile is the per-user config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix is prepended to every key to form its environment variable.
	EnvPrefix = "HOSTFACTS"
	// PathEnv names a config file, like --config.
	PathEnv = "HOSTFACTS_CONFIG"
)

// FlagKeys maps command-line flag names to the config keys they override.
var FlagKeys = map[string]string{
	"server":          "server",
	"username":        "username",
	"key":             "key",
	"port":            "port",
	"remote-path":     "remote_path",
	"artifact":        "artifact",
	"known-hosts":     "known_hosts",
	"ssh-config":      "ssh_config",
	"connect-timeout": "connect_timeout",
	"package-command": "package_command",
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. $HOSTFACTS_CONFIG
// 3. .hostfacts.yaml in the current directory
// 4. ~/.config/hostfacts/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv(PathEnv)
	}
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path passed with --config or "+PathEnv)
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err == nil {
		local := filepath.Join(cwd, ConfigFileName)
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		global := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// Load builds the effective config from defaults, the file at path (skipped
// when path is empty), HOSTFACTS_* environment variables and the flags in
// flags that were set on the command line. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.WrapWithCode(err, errors.ErrConfig,
						"Couldn't bind flag --"+name, "")
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found",
					"Specify an existing file with --config")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check "+path+" is valid YAML")
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		where := "your environment"
		if path != "" {
			where = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the value types in "+where)
	}

	return cfg, nil
}

// PackageCommand resolves only package_command from HOSTFACTS_PACKAGE_COMMAND
// and --package-command. Remote mode needs nothing else, so malformed
// values for other keys in the remote environment cannot fail it.
func PackageCommand(flags *pflag.FlagSet) (string, error) {
	v := viper.New()
	v.SetDefault("package_command", "")
	v.SetEnvPrefix(EnvPrefix)
	if err := v.BindEnv("package_command"); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't bind "+EnvPrefix+"_PACKAGE_COMMAND", "")
	}
	if flags != nil {
		if f := flags.Lookup("package-command"); f != nil {
			if err := v.BindPFlag("package_command", f); err != nil {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Couldn't bind flag --package-command", "")
			}
		}
	}
	return v.GetString("package_command"), nil
}

// LoadOrDefault finds the config file and loads it. Without a file the
// result still carries environment and flag overrides.
func LoadOrDefault(explicit string, flags *pflag.FlagSet) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(path, flags)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("server", "")
	v.SetDefault("username", "")
	v.SetDefault("key", "")
	v.SetDefault("port", d.Port)
	v.SetDefault("remote_path", d.RemotePath)
	v.SetDefault("artifact", "")
	v.SetDefault("trust_unknown_hosts", d.TrustUnknownHosts)
	v.SetDefault("known_hosts", "")
	v.SetDefault("ssh_config", "")
	v.SetDefault("connect_timeout", "0s")
	v.SetDefault("package_command", "")
	v.SetDefault("color", d.Color)
}
