package config

import "time"

// Config holds the connection and collection settings for one run.
// Every field can come from the config file, a HOSTFACTS_* environment
// variable or a command-line flag, in increasing order of precedence.
type Config struct {
	// Server is the host name, host:port or SSH config alias to inspect.
	Server string `yaml:"server" mapstructure:"server"`

	// Username is the login name on the server.
	Username string `yaml:"username" mapstructure:"username"`

	// Key is the private key file used to authenticate.
	Key string `yaml:"key" mapstructure:"key"`

	// Port overrides the port from Server and the SSH config. Zero keeps
	// them, falling back to 22.
	Port int `yaml:"port" mapstructure:"port"`

	// RemotePath is where the collector is uploaded. It must be absolute
	// or start with ~/.
	RemotePath string `yaml:"remote_path" mapstructure:"remote_path"`

	// Artifact is the local file uploaded to the server.
	// Empty means the running hostfacts executable.
	Artifact string `yaml:"artifact" mapstructure:"artifact"`

	// TrustUnknownHosts accepts any host key. When false the key must be
	// listed in KnownHosts.
	TrustUnknownHosts bool `yaml:"trust_unknown_hosts" mapstructure:"trust_unknown_hosts"`

	KnownHosts string `yaml:"known_hosts" mapstructure:"known_hosts"`
	SSHConfig  string `yaml:"ssh_config" mapstructure:"ssh_config"`

	// ConnectTimeout bounds the TCP connect and SSH handshake. Zero waits forever.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`

	// PackageCommand replaces package manager detection in remote mode.
	PackageCommand string `yaml:"package_command" mapstructure:"package_command"`

	// Color is "auto", "always" or "never".
	Color string `yaml:"color" mapstructure:"color"`
}

const (
	DefaultRemotePath = "/tmp/hostfacts"
	DefaultColor      = "auto"
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		RemotePath:        DefaultRemotePath,
		TrustUnknownHosts: true,
		Color:             DefaultColor,
	}
}
