//go:build linux

package telemetry

import "golang.org/x/sys/unix"

func statfs(path string) (FSStat, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return FSStat{}, err
	}
	return FSStat{
		AvailableBlocks: st.Bavail,
		FragmentSize:    uint64(st.Frsize),
	}, nil
}
