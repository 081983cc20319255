package testing

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLocal(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "artifact")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o755))
	return p
}

func TestMockClient_UploadStoresFile(t *testing.T) {
	m := NewMockClient("host.example")
	local := writeLocal(t, "#!/bin/sh\necho hi\n")

	require.NoError(t, m.Upload(local, "/tmp/hostfacts", 0o755))

	data, mode, err := m.RemoteFile("/tmp/hostfacts")
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\necho hi\n", string(data))
	assert.Equal(t, os.FileMode(0o755), mode)
	assert.Equal(t, []string{"upload /tmp/hostfacts"}, m.Calls)
}

func TestMockClient_UploadFailure(t *testing.T) {
	m := NewMockClient("host.example")
	m.FailUploads(errors.New("disk full"))

	err := m.Upload(writeLocal(t, "x"), "/tmp/hostfacts", 0o755)
	assert.EqualError(t, err, "disk full")
}

func TestMockClient_Capture(t *testing.T) {
	m := NewMockClient("host.example")
	m.SetResponse("'/tmp/hostfacts' -r", CommandResponse{Stdout: []byte("report")})

	out, err := m.Capture("'/tmp/hostfacts' -r")
	require.NoError(t, err)
	assert.Equal(t, "report", string(out))

	_, err = m.Capture("uptime")
	assert.Error(t, err)
}

func TestMockClient_ClosedConnection(t *testing.T) {
	m := NewMockClient("host.example")
	require.NoError(t, m.Close())
	assert.True(t, m.IsClosed())

	_, err := m.Capture("anything")
	assert.Error(t, err)
	assert.Error(t, m.Upload(writeLocal(t, "x"), "/tmp/x", 0o755))
	assert.Equal(t, "host.example:22", m.GetAddress())
}
