package telemetry

import (
	"fmt"
	"strconv"
	"strings"
)

// excludedDeviceMarkers are substrings that mark virtual block devices.
var excludedDeviceMarkers = []string{"ram", "loop"}

// LoadAverage holds the 1, 5 and 15 minute load averages.
type LoadAverage struct {
	Load1  float64
	Load5  float64
	Load15 float64
}

// String renders the averages as a tuple: (0.52, 0.58, 0.59).
func (l LoadAverage) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", l.Load1, l.Load5, l.Load15)
}

// FSStat is the subset of statfs results needed for free-space reporting.
type FSStat struct {
	AvailableBlocks uint64 // blocks available to unprivileged users
	FragmentSize    uint64 // fundamental block size in bytes
}

// FreeMegabytes returns available space in MB, truncating at each step.
func (s FSStat) FreeMegabytes() uint64 {
	return s.AvailableBlocks * s.FragmentSize / 1024 / 1024
}

// String renders the free space as "<N> MB".
func (s FSStat) String() string {
	return strconv.FormatUint(s.FreeMegabytes(), 10) + " MB"
}

// FilterBlockDevices drops ram and loop devices, keeping the input order.
func FilterBlockDevices(names []string) []string {
	kept := make([]string, 0, len(names))
	for _, name := range names {
		if isVirtualDevice(name) {
			continue
		}
		kept = append(kept, name)
	}
	return kept
}

func isVirtualDevice(name string) bool {
	for _, marker := range excludedDeviceMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// FormatList renders names as a bracketed, space separated list: [sda sdb].
func FormatList(names []string) string {
	return "[" + strings.Join(names, " ") + "]"
}

// splitLines breaks text into lines, dropping the empty tail left by a
// trailing newline.
func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
