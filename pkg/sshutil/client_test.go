package sshutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rileyhilliard/hostfacts/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const report = "Average load:\n(0.10, 0.20, 0.30)\n\nCores count:\n4"

func collectorExec(cmd string) execResult {
	if strings.HasSuffix(cmd, " -r") {
		return execResult{stdout: report}
	}
	return execResult{stderr: "sh: " + cmd + ": not found", status: 127}
}

func dialTestServer(t *testing.T, s *testServer, keyPath string, mutate ...func(*DialOptions)) (*Client, error) {
	t.Helper()
	opts := DialOptions{
		Host:              s.addr(),
		User:              "admin",
		KeyPath:           keyPath,
		TrustUnknownHosts: true,
		SSHConfigPath:     filepath.Join(t.TempDir(), "missing_config"),
		Timeout:           5 * time.Second,
	}
	for _, m := range mutate {
		m(&opts)
	}
	return Dial(opts)
}

func TestDial_UploadAndCapture(t *testing.T) {
	dir := t.TempDir()
	keyPath, pub := newKeyPair(t, dir)
	s := startTestServer(t, "admin", pub, collectorExec)

	client, err := dialTestServer(t, s, keyPath)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, s.addr(), client.GetHost())
	assert.Equal(t, s.addr(), client.GetAddress())

	artifact := filepath.Join(dir, "hostfacts")
	require.NoError(t, os.WriteFile(artifact, []byte("binary-bytes"), 0o644))
	remote := filepath.Join(dir, "remote", "hostfacts")

	require.NoError(t, client.Upload(artifact, remote, 0o755))

	data, err := os.ReadFile(remote)
	require.NoError(t, err)
	assert.Equal(t, "binary-bytes", string(data))
	info, err := os.Stat(remote)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	out, err := client.Capture("'" + remote + "' -r")
	require.NoError(t, err)
	assert.Equal(t, report, string(out))
	assert.Equal(t, []string{"'" + remote + "' -r"}, s.executed())
}

func TestCapture_NonZeroExitIsRemoteExecError(t *testing.T) {
	dir := t.TempDir()
	keyPath, pub := newKeyPair(t, dir)
	s := startTestServer(t, "admin", pub, collectorExec)

	client, err := dialTestServer(t, s, keyPath)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Capture("uptime")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrRemoteExec))
	assert.Contains(t, err.Error(), "status 127")
	assert.Contains(t, err.Error(), "not found")
}

func TestUpload_MissingLocalFile(t *testing.T) {
	dir := t.TempDir()
	keyPath, pub := newKeyPair(t, dir)
	s := startTestServer(t, "admin", pub, collectorExec)

	client, err := dialTestServer(t, s, keyPath)
	require.NoError(t, err)
	defer client.Close()

	err = client.Upload(filepath.Join(dir, "nope"), filepath.Join(dir, "out"), 0o755)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTransfer))
}

func TestUpload_SubChannelReleasedAfterFailure(t *testing.T) {
	dir := t.TempDir()
	keyPath, pub := newKeyPair(t, dir)
	s := startTestServer(t, "admin", pub, collectorExec)

	client, err := dialTestServer(t, s, keyPath)
	require.NoError(t, err)
	defer client.Close()

	artifact := filepath.Join(dir, "hostfacts")
	require.NoError(t, os.WriteFile(artifact, []byte("x"), 0o644))
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// Parent is a regular file, so creating the remote path fails.
	err = client.Upload(artifact, filepath.Join(blocker, "hostfacts"), 0o755)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTransfer))

	// The connection is still usable for the next operation.
	out, err := client.Capture("collector -r")
	require.NoError(t, err)
	assert.Equal(t, report, string(out))
}

func TestDial_WrongUserFailsAuth(t *testing.T) {
	dir := t.TempDir()
	keyPath, pub := newKeyPair(t, dir)
	s := startTestServer(t, "admin", pub, collectorExec)

	_, err := dialTestServer(t, s, keyPath, func(o *DialOptions) { o.User = "root" })
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTransfer))
	assert.Contains(t, err.Error(), "handshake")
}

func TestDial_MissingKeyFile(t *testing.T) {
	dir := t.TempDir()
	_, pub := newKeyPair(t, dir)
	s := startTestServer(t, "admin", pub, collectorExec)

	_, err := dialTestServer(t, s, filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTransfer))
	assert.Contains(t, err.Error(), "Couldn't load SSH key")
}

func TestDial_EncryptedKey(t *testing.T) {
	dir := t.TempDir()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	//nolint:staticcheck // legacy PEM encryption is what older ssh-keygen produced
	block, err := x509.EncryptPEMBlock(rand.Reader, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key), []byte("pp"), x509.PEMCipherAES256)
	require.NoError(t, err)
	keyPath := filepath.Join(dir, "id_rsa")
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(block), 0o600))

	_, err = Dial(DialOptions{Host: "127.0.0.1:1", User: "admin", KeyPath: keyPath, TrustUnknownHosts: true})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTransfer))
	assert.Contains(t, err.Error(), "encrypted")
}

func TestDial_UnreachableHost(t *testing.T) {
	dir := t.TempDir()
	keyPath, _ := newKeyPair(t, dir)

	// Grab a free port and release it so nothing is listening.
	s := startTestServer(t, "admin", nil, collectorExec)
	addr := s.addr()
	s.listener.Close()

	_, err := Dial(DialOptions{
		Host:              addr,
		User:              "admin",
		KeyPath:           keyPath,
		TrustUnknownHosts: true,
		SSHConfigPath:     filepath.Join(dir, "none"),
		Timeout:           2 * time.Second,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTransfer))
	assert.Contains(t, err.Error(), "Can't reach")
}

func TestDial_StrictHostKeys(t *testing.T) {
	dir := t.TempDir()
	keyPath, pub := newKeyPair(t, dir)
	s := startTestServer(t, "admin", pub, collectorExec)
	knownHosts := filepath.Join(dir, "known_hosts")

	strict := func(o *DialOptions) {
		o.TrustUnknownHosts = false
		o.KnownHostsPath = knownHosts
	}

	t.Run("unknown host rejected", func(t *testing.T) {
		_, err := dialTestServer(t, s, keyPath, strict)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrTransfer))
		assert.Contains(t, err.Error(), "ssh-keyscan")
	})

	t.Run("recorded host accepted", func(t *testing.T) {
		line := knownhosts.Line([]string{knownhosts.Normalize(s.addr())}, s.hostKey.PublicKey())
		require.NoError(t, os.WriteFile(knownHosts, []byte(line+"\n"), 0o600))

		client, err := dialTestServer(t, s, keyPath, strict)
		require.NoError(t, err)
		client.Close()
	})

	t.Run("changed key rejected", func(t *testing.T) {
		_, otherPub := newKeyPair(t, t.TempDir())
		line := knownhosts.Line([]string{knownhosts.Normalize(s.addr())}, otherPub)
		require.NoError(t, os.WriteFile(knownHosts, []byte(line+"\n"), 0o600))

		_, err := dialTestServer(t, s, keyPath, strict)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "host key mismatch")
	})
}

func TestHostKeyMismatchError_Suggestion(t *testing.T) {
	_, pub := newKeyPair(t, t.TempDir())
	e := &HostKeyMismatchError{
		Hostname:     "host.example:22",
		ReceivedType: ssh.KeyAlgoED25519,
		KnownHosts:   "/home/admin/.ssh/known_hosts",
		Want:         []knownhosts.KnownKey{{Key: pub}},
	}

	assert.Contains(t, e.Error(), "host.example:22")
	assert.Contains(t, e.Suggestion(), "ssh-keygen -R host.example -f /home/admin/.ssh/known_hosts")
}
