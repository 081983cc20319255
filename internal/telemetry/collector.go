package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rileyhilliard/hostfacts/internal/errors"
	"github.com/rileyhilliard/hostfacts/internal/logger"
)

// Source reads the raw facts a report is built from.
// Each method is an independent read; none depends on another having run.
type Source interface {
	LoadAverage(ctx context.Context) (LoadAverage, error)
	BlockDevices(ctx context.Context) ([]string, error)
	CPUCount(ctx context.Context) (int, error)
	MountTable(ctx context.Context) ([]string, error)
	RootFS(ctx context.Context) (FSStat, error)
	Packages(ctx context.Context) ([]string, error)
}

// Collector turns a Source into a Report.
type Collector struct {
	src Source
	log logger.Logger
}

// New creates a Collector reading from src. A nil logger discards output.
func New(src Source, log logger.Logger) *Collector {
	if log == nil {
		log = logger.Noop()
	}
	return &Collector{src: src, log: log}
}

type step struct {
	label      string
	suggestion string
	read       func(ctx context.Context) (string, error)
}

func (c *Collector) steps() []step {
	return []step{
		{
			label:      LabelLoad,
			suggestion: "Check that /proc/loadavg is readable.",
			read: func(ctx context.Context) (string, error) {
				avg, err := c.src.LoadAverage(ctx)
				if err != nil {
					return "", err
				}
				return avg.String(), nil
			},
		},
		{
			label:      LabelBlockDevices,
			suggestion: "Check that /sys is mounted and /sys/block is readable.",
			read: func(ctx context.Context) (string, error) {
				names, err := c.src.BlockDevices(ctx)
				if err != nil {
					return "", err
				}
				return FormatList(FilterBlockDevices(names)), nil
			},
		},
		{
			label:      LabelCPUCount,
			suggestion: "Check that /proc/cpuinfo is readable.",
			read: func(ctx context.Context) (string, error) {
				n, err := c.src.CPUCount(ctx)
				if err != nil {
					return "", err
				}
				return strconv.Itoa(n), nil
			},
		},
		{
			label:      LabelMounts,
			suggestion: "Check that /proc is mounted and /proc/mounts is readable.",
			read: func(ctx context.Context) (string, error) {
				lines, err := c.src.MountTable(ctx)
				if err != nil {
					return "", err
				}
				return strings.Join(lines, "\n"), nil
			},
		},
		{
			label:      LabelFreeSpace,
			suggestion: "Check that the root filesystem is mounted.",
			read: func(ctx context.Context) (string, error) {
				st, err := c.src.RootFS(ctx)
				if err != nil {
					return "", err
				}
				return st.String(), nil
			},
		},
		{
			label:      LabelPackages,
			suggestion: "Set package_command in the config if the host has no rpm, dpkg-query or apk.",
			read: func(ctx context.Context) (string, error) {
				lines, err := c.src.Packages(ctx)
				if err != nil {
					return "", err
				}
				return strings.Join(lines, "\n"), nil
			},
		},
	}
}

// Collect reads every source in report order and assembles the report.
// The first failing read aborts the collection; later sources are not read.
func (c *Collector) Collect(ctx context.Context) (*Report, error) {
	steps := c.steps()
	report := &Report{Sections: make([]Section, 0, len(steps))}

	for _, s := range steps {
		c.log.Debug("reading %s", strings.ToLower(s.label))
		body, err := s.read(ctx)
		if err != nil {
			c.log.Debug("reading %s failed: %v", strings.ToLower(s.label), err)
			return nil, errors.WrapWithCode(err, errors.ErrCollect,
				fmt.Sprintf("Couldn't collect %s", strings.ToLower(s.label)),
				s.suggestion)
		}
		report.Sections = append(report.Sections, Section{Label: s.label, Body: body})
	}

	return report, nil
}
