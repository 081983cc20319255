package telemetry

import (
	"context"
	"errors"
	"strings"
	"testing"

	hferrors "github.com/rileyhilliard/hostfacts/internal/errors"
	"github.com/rileyhilliard/hostfacts/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource returns canned facts and records which reads happened.
type fakeSource struct {
	calls []string
	fail  map[string]error
}

func newFakeSource() *fakeSource {
	return &fakeSource{fail: make(map[string]error)}
}

func (f *fakeSource) record(name string) error {
	f.calls = append(f.calls, name)
	return f.fail[name]
}

func (f *fakeSource) LoadAverage(ctx context.Context) (LoadAverage, error) {
	return LoadAverage{Load1: 0.5, Load5: 0.25, Load15: 0.75}, f.record("load")
}

func (f *fakeSource) BlockDevices(ctx context.Context) ([]string, error) {
	return []string{"sda", "sdb", "ram0", "loop0", "loop1"}, f.record("block")
}

func (f *fakeSource) CPUCount(ctx context.Context) (int, error) {
	return 8, f.record("cpu")
}

func (f *fakeSource) MountTable(ctx context.Context) ([]string, error) {
	return []string{
		"/dev/sda1 / ext4 rw,relatime 0 0",
		"proc /proc proc rw,nosuid,nodev,noexec,relatime 0 0",
	}, f.record("mounts")
}

func (f *fakeSource) RootFS(ctx context.Context) (FSStat, error) {
	return FSStat{AvailableBlocks: 1048576, FragmentSize: 1024}, f.record("rootfs")
}

func (f *fakeSource) Packages(ctx context.Context) ([]string, error) {
	return []string{"bash-5.1.8-6.el9.x86_64", "coreutils-8.32-34.el9.x86_64"}, f.record("packages")
}

func TestCollect_FullReport(t *testing.T) {
	src := newFakeSource()

	report, err := New(src, nil).Collect(context.Background())
	require.NoError(t, err)

	labels := make([]string, 0, len(report.Sections))
	for _, s := range report.Sections {
		labels = append(labels, s.Label)
	}
	assert.Equal(t, SectionOrder, labels)
	assert.Equal(t, []string{"load", "block", "cpu", "mounts", "rootfs", "packages"}, src.calls)

	want := "Average load:\n(0.50, 0.25, 0.75)\n\n" +
		"Block devices:\n[sda sdb]\n\n" +
		"Cores count:\n8\n\n" +
		"Devices mounted at:\n/dev/sda1 / ext4 rw,relatime 0 0\nproc /proc proc rw,nosuid,nodev,noexec,relatime 0 0\n\n" +
		"Space available on root device:\n1024 MB\n\n" +
		"Installed packages:\nbash-5.1.8-6.el9.x86_64\ncoreutils-8.32-34.el9.x86_64"
	assert.Equal(t, want, report.String())
}

func TestCollect_ReportBoundaries(t *testing.T) {
	report, err := New(newFakeSource(), nil).Collect(context.Background())
	require.NoError(t, err)

	out := report.String()
	assert.True(t, strings.HasPrefix(out, "Average load:\n"))
	assert.True(t, strings.HasSuffix(out, "coreutils-8.32-34.el9.x86_64"))
}

func TestCollect_MountLinesJoinedWithoutBlankLines(t *testing.T) {
	report, err := New(newFakeSource(), nil).Collect(context.Background())
	require.NoError(t, err)

	var mounts string
	for _, s := range report.Sections {
		if s.Label == LabelMounts {
			mounts = s.Body
		}
	}
	assert.Equal(t, "/dev/sda1 / ext4 rw,relatime 0 0\nproc /proc proc rw,nosuid,nodev,noexec,relatime 0 0", mounts)
	assert.NotContains(t, mounts, "\n\n")
}

func TestCollect_MountFailureAbortsReport(t *testing.T) {
	src := newFakeSource()
	cause := errors.New("open /proc/mounts: permission denied")
	src.fail["mounts"] = cause

	report, err := New(src, nil).Collect(context.Background())

	require.Error(t, err)
	assert.Nil(t, report, "no partial report on failure")
	assert.True(t, hferrors.IsCode(err, hferrors.ErrCollect))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "devices mounted at")
	assert.Equal(t, []string{"load", "block", "cpu", "mounts"}, src.calls,
		"free space and packages must not be read after a failure")
}

func TestCollect_AnySourceFailureIsCollectionError(t *testing.T) {
	for _, name := range []string{"load", "block", "cpu", "mounts", "rootfs", "packages"} {
		t.Run(name, func(t *testing.T) {
			src := newFakeSource()
			src.fail[name] = errors.New("boom")

			report, err := New(src, nil).Collect(context.Background())

			require.Error(t, err)
			assert.Nil(t, report)
			assert.True(t, hferrors.IsCode(err, hferrors.ErrCollect))
			assert.Equal(t, name, src.calls[len(src.calls)-1])
		})
	}
}

func TestCollect_LogsEachRead(t *testing.T) {
	log := logger.NewBufferLogger()

	_, err := New(newFakeSource(), log).Collect(context.Background())
	require.NoError(t, err)

	assert.True(t, log.Contains("reading average load"))
	assert.True(t, log.Contains("reading installed packages"))
}
