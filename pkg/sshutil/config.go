package sshutil

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// DefaultPort is used when neither the host string nor ~/.ssh/config names a port.
const DefaultPort = 22

// sshSettings holds resolved SSH connection parameters.
type sshSettings struct {
	hostname string
	port     string
}

// address returns the host:port string for dialing.
func (s *sshSettings) address() string {
	return net.JoinHostPort(s.hostname, s.port)
}

// resolveSSHSettings turns a host string into a dialable address.
// The host can be:
//   - An SSH config alias (e.g., "myserver")
//   - A hostname (e.g., "192.168.1.100")
//   - A hostname:port (e.g., "192.168.1.100:2222")
//   - An IPv6 literal, bare or bracketed (e.g., "fe80::1", "[fe80::1]:2222")
//
// HostName and Port are looked up in the SSH config at configPath. An
// explicit port (non-zero) beats both the host string and the config file.
func resolveSSHSettings(host string, port int, configPath string) *sshSettings {
	settings := &sshSettings{
		hostname: host,
		port:     strconv.Itoa(DefaultPort),
	}

	portFromHost := false
	if h, p, err := net.SplitHostPort(host); err == nil {
		if _, perr := strconv.Atoi(p); perr == nil {
			settings.hostname = h
			settings.port = p
			portFromHost = true
		}
	} else if net.ParseIP(host) != nil {
		// Bare IPv6 literal: every colon belongs to the address.
		settings.hostname = host
	} else if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		settings.hostname = host[1 : len(host)-1]
	}

	if cfg := loadSSHConfig(configPath); cfg != nil {
		alias := settings.hostname
		if hostname, _ := cfg.Get(alias, "HostName"); hostname != "" {
			settings.hostname = hostname
		}
		if cfgPort, _ := cfg.Get(alias, "Port"); cfgPort != "" && !portFromHost {
			settings.port = cfgPort
		}
	}

	if port > 0 {
		settings.port = strconv.Itoa(port)
	}

	return settings
}

// loadSSHConfig decodes the SSH config file, returning nil when it is
// missing or unreadable. A missing config is the normal case.
func loadSSHConfig(configPath string) *ssh_config.Config {
	if configPath == "" {
		configPath = filepath.Join(homeDir(), ".ssh", "config")
	}

	// kevinburke/ssh_config doesn't understand Match blocks, so only the
	// part of the file before the first one is decoded.
	content, _, err := preprocessSSHConfig(configPath)
	if err != nil {
		return nil
	}

	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return nil
	}
	return cfg
}

// preprocessSSHConfig reads the SSH config and returns content up to the first Match directive.
// Also returns the line number where Match was found (0 if not found).
func preprocessSSHConfig(configPath string) ([]byte, int, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, 0, err
	}

	lines := strings.Split(string(content), "\n")
	var result []string
	matchLine := 0

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(trimmed), "match ") {
			matchLine = i + 1
			break
		}
		result = append(result, line)
	}

	return []byte(strings.Join(result, "\n")), matchLine, nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// ExpandPath replaces a leading ~/ with the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// DefaultKnownHostsPath returns ~/.ssh/known_hosts.
func DefaultKnownHostsPath() string {
	return filepath.Join(homeDir(), ".ssh", "known_hosts")
}
