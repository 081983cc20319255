//go:build !linux

package telemetry

import (
	"fmt"
	"runtime"
)

func statfs(path string) (FSStat, error) {
	return FSStat{}, fmt.Errorf("free space reporting is not supported on %s", runtime.GOOS)
}
