package sshutil

import "os"

// Transport is the set of remote operations a dispatch needs: push a file,
// run a command and capture its stdout, and hang up.
//
// *Client satisfies it; tests use the fake in pkg/sshutil/testing.
type Transport interface {
	// Upload copies a local file to remotePath with the given permissions.
	Upload(localPath, remotePath string, mode os.FileMode) error

	// Capture runs cmd and returns its complete stdout.
	Capture(cmd string) ([]byte, error)

	// Close closes the SSH connection.
	Close() error

	// GetHost returns the original host/alias used to connect.
	GetHost() string

	// GetAddress returns the resolved host:port address.
	GetAddress() string
}

var _ Transport = (*Client)(nil)
