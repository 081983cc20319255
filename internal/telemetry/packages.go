package telemetry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// packageManagers are tried in order when no command is configured.
var packageManagers = [][]string{
	{"rpm", "-qa"},
	{"dpkg-query", "-W", "-f", "${binary:Package}-${Version}\n"},
	{"apk", "info", "-v"},
}

// PackageLister runs the package manager's list-installed query.
// Output goes through a temporary file that lives only for one List call.
type PackageLister struct {
	// Command is run through sh -c when set. Empty means auto-detect.
	Command string
	// TempDir holds the intermediate file; empty means os.TempDir().
	TempDir string

	lookPath func(file string) (string, error)
}

// NewPackageLister creates a lister for the given shell command.
func NewPackageLister(command string) *PackageLister {
	return &PackageLister{Command: command, lookPath: exec.LookPath}
}

// argv resolves the command line to run.
func (p *PackageLister) argv() ([]string, error) {
	if p.Command != "" {
		return []string{"sh", "-c", p.Command}, nil
	}
	lookPath := p.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, candidate := range packageManagers {
		if _, err := lookPath(candidate[0]); err == nil {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf("no supported package manager found (tried rpm, dpkg-query, apk)")
}

// List runs the query and returns its output one package per line.
func (p *PackageLister) List(ctx context.Context) ([]string, error) {
	argv, err := p.argv()
	if err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(p.TempDir, "hostfacts-packages-*")
	if err != nil {
		return nil, fmt.Errorf("create package list file: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = f
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", strings.Join(argv, " "), err, msg)
		}
		return nil, fmt.Errorf("%s: %w", strings.Join(argv, " "), err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind package list file: %w", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read package list file: %w", err)
	}

	return splitLines(string(data)), nil
}
