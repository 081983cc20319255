// Package testing provides an in-memory stand-in for an SSH connection.
package testing

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rileyhilliard/hostfacts/pkg/sshutil"
	"github.com/spf13/afero"
)

// CommandResponse defines a canned response for a command.
type CommandResponse struct {
	Stdout []byte
	Error  error
}

// MockClient simulates an SSH connection for testing.
// Uploads land in an in-memory remote filesystem and every operation is
// appended to Calls in the order it happened.
type MockClient struct {
	mu        sync.Mutex
	host      string
	address   string
	fs        afero.Fs
	closed    bool
	commands  map[string]CommandResponse
	uploadErr error

	// Calls records operations as "upload <remote>", "capture <cmd>" and "close".
	Calls []string
}

var _ sshutil.Transport = (*MockClient)(nil)

// NewMockClient creates a new mock SSH client with an empty remote filesystem.
func NewMockClient(host string) *MockClient {
	return &MockClient{
		host:     host,
		address:  host + ":22",
		fs:       afero.NewMemMapFs(),
		commands: make(map[string]CommandResponse),
	}
}

// SetResponse configures what Capture returns for cmd.
func (m *MockClient) SetResponse(cmd string, resp CommandResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands[cmd] = resp
}

// FailUploads makes every subsequent Upload return err.
func (m *MockClient) FailUploads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadErr = err
}

// Upload copies the local file into the remote filesystem.
func (m *MockClient) Upload(localPath, remotePath string, mode os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "upload "+remotePath)
	if m.closed {
		return errors.New("connection closed")
	}
	if m.uploadErr != nil {
		return m.uploadErr
	}

	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := m.fs.OpenFile(remotePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// Capture returns the configured response for cmd.
// Unknown commands fail the way a missing binary would.
func (m *MockClient) Capture(cmd string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "capture "+cmd)
	if m.closed {
		return nil, errors.New("connection closed")
	}
	resp, ok := m.commands[cmd]
	if !ok {
		return nil, fmt.Errorf("command not found: %s", cmd)
	}
	return resp.Stdout, resp.Error
}

// Close marks the connection closed.
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "close")
	m.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (m *MockClient) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// GetHost returns the host passed to NewMockClient.
func (m *MockClient) GetHost() string { return m.host }

// GetAddress returns host:22.
func (m *MockClient) GetAddress() string { return m.address }

// RemoteFile returns the content and permissions of an uploaded file.
func (m *MockClient) RemoteFile(path string) ([]byte, os.FileMode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, err := m.fs.Stat(path)
	if err != nil {
		return nil, 0, err
	}
	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		return nil, 0, err
	}
	return data, info.Mode().Perm(), nil
}
