package cli

import (
	"fmt"

	"github.com/rileyhilliard/hostfacts/internal/config"
	"github.com/rileyhilliard/hostfacts/internal/telemetry"
	"github.com/spf13/cobra"
)

// runRemote collects facts about the machine it runs on and prints the
// report to stdout. It reads no config file and only the package command
// setting from the environment or flags.
func (a *app) runRemote(cmd *cobra.Command) error {
	pkgCmd, err := config.PackageCommand(cmd.Flags())
	if err != nil {
		return err
	}

	src := a.source
	if src == nil {
		src = telemetry.NewHostSource(pkgCmd)
	}

	report, err := telemetry.New(src, a.log).Collect(cmd.Context())
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(a.stdout, report.String())
	return err
}
