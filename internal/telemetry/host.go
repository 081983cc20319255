package telemetry

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/spf13/afero"
)

// Default locations read by HostSource.
const (
	DefaultBlockDir   = "/sys/block"
	DefaultMountsPath = "/proc/mounts"
	DefaultRootPath   = "/"
)

// HostSource reads facts from the machine the process runs on.
// Path fields and the filesystem are exposed so tests can point them at
// fixtures.
type HostSource struct {
	FS         afero.Fs
	BlockDir   string
	MountsPath string
	RootPath   string

	// Statfs reports filesystem statistics for a path.
	Statfs func(path string) (FSStat, error)

	Lister *PackageLister
}

// NewHostSource returns a HostSource bound to the real filesystem.
// packageCommand overrides package-manager detection when non-empty.
func NewHostSource(packageCommand string) *HostSource {
	return &HostSource{
		FS:         afero.NewOsFs(),
		BlockDir:   DefaultBlockDir,
		MountsPath: DefaultMountsPath,
		RootPath:   DefaultRootPath,
		Statfs:     statfs,
		Lister:     NewPackageLister(packageCommand),
	}
}

// LoadAverage returns the host load averages.
func (h *HostSource) LoadAverage(ctx context.Context) (LoadAverage, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return LoadAverage{}, fmt.Errorf("load average: %w", err)
	}
	return LoadAverage{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}, nil
}

// BlockDevices lists the entries of the block-device directory.
func (h *HostSource) BlockDevices(ctx context.Context) ([]string, error) {
	entries, err := afero.ReadDir(h.FS, h.BlockDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// CPUCount returns the number of logical processors.
func (h *HostSource) CPUCount(ctx context.Context) (int, error) {
	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("cpu count: %w", err)
	}
	return n, nil
}

// MountTable returns the lines of the mount table verbatim.
func (h *HostSource) MountTable(ctx context.Context) ([]string, error) {
	data, err := afero.ReadFile(h.FS, h.MountsPath)
	if err != nil {
		return nil, err
	}
	return splitLines(string(data)), nil
}

// RootFS returns filesystem statistics for the root path.
func (h *HostSource) RootFS(ctx context.Context) (FSStat, error) {
	st, err := h.Statfs(h.RootPath)
	if err != nil {
		return FSStat{}, fmt.Errorf("statfs %s: %w", h.RootPath, err)
	}
	return st, nil
}

// Packages lists installed packages through the package manager.
func (h *HostSource) Packages(ctx context.Context) ([]string, error) {
	return h.Lister.List(ctx)
}
