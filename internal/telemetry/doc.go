// Package telemetry gathers a fixed set of operating-system facts and
// assembles them into a Report.
//
// # Sections
//
// A report always holds the same six sections in the same order:
//
//  1. Average load (1, 5 and 15 minute load averages)
//  2. Block devices (entries of /sys/block, minus ram and loop devices)
//  3. Cores count (logical processors)
//  4. Devices mounted at (the live mount table, verbatim)
//  5. Space available on root device (in MB)
//  6. Installed packages (output of the package manager)
//
// # Failure Policy
//
// Reports are all-or-nothing. The Collector reads sources one at a time and
// stops at the first failure, returning an errors.ErrCollect error that wraps
// the cause. No partial report is ever returned.
//
// # Sources
//
// Facts come from a Source. HostSource reads the machine the process runs
// on; tests substitute their own implementation.
package telemetry
