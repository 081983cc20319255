package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/rileyhilliard/hostfacts/internal/dispatch"
	"github.com/rileyhilliard/hostfacts/internal/errors"
	"github.com/rileyhilliard/hostfacts/internal/logger"
	"github.com/rileyhilliard/hostfacts/internal/telemetry"
	"github.com/spf13/cobra"
)

// Exit statuses returned by Run.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// rootFlags are the flags that are not config keys.
type rootFlags struct {
	configPath    string
	remote        bool
	strictHostKey bool
	noColor       bool
	verbose       bool
}

// app carries one invocation's writers and replaceable dependencies.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// dial replaces the SSH dialer in local mode when set.
	dial dispatch.DialFunc
	// source replaces the host telemetry source in remote mode when set.
	source telemetry.Source

	flags rootFlags
	log   logger.Logger
}

// Execute runs hostfacts with the process arguments and returns the exit status.
func Execute() int {
	return Run(os.Args[1:], os.Stdout, os.Stderr)
}

// Run runs hostfacts with args, writing the report to stdout and progress,
// logs and errors to stderr. It returns the process exit status.
func Run(args []string, stdout, stderr io.Writer) int {
	return (&app{stdout: stdout, stderr: stderr}).run(args)
}

func (a *app) run(args []string) int {
	if a.log == nil {
		a.log = logger.Default()
	}

	root := a.newRootCmd()
	root.SetArgs(args)

	cmd, err := root.ExecuteContextC(context.Background())
	if err == nil {
		return ExitOK
	}
	return a.report(cmd, err)
}

// report is the single error boundary: it prints err and maps it to an exit status.
func (a *app) report(cmd *cobra.Command, err error) int {
	var hfErr *errors.Error
	if stderrors.As(err, &hfErr) {
		fmt.Fprint(a.stderr, err.Error())
	} else {
		fmt.Fprintf(a.stderr, "✗ %v\n", err)
	}

	if errors.IsCode(err, errors.ErrUsage) {
		if cmd != nil {
			fmt.Fprintln(a.stderr)
			fmt.Fprint(a.stderr, cmd.UsageString())
		}
		return ExitUsage
	}
	return ExitFailure
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hostfacts",
		Short: "Collect OS facts from a remote host over SSH",
		Long: `hostfacts copies itself to a remote host over SSH, runs there in
remote-collection mode and prints the report it produces.

The report lists the load average, block devices, CPU count, mount table,
free space on / and installed packages.

Examples:
  hostfacts -s build01.example -u ops -k ~/.ssh/id_ed25519
  hostfacts --config ./hosts/build01.yaml
  hostfacts -r`,
		Args:          noArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.flags.verbose {
				logger.SetVerbose(true)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.remote {
				return a.runRemote(cmd)
			}
			return a.runLocal(cmd)
		},
	}

	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err.Error())
	})

	pf := root.PersistentFlags()
	pf.StringP("server", "s", "", "remote host name, host:port or SSH config alias")
	pf.StringP("username", "u", "", "login name on the remote host")
	pf.StringP("key", "k", "", "private key file used to log in")
	pf.Int("port", 0, "SSH port (default: from --server or SSH config, else 22)")
	pf.String("remote-path", "", "where the collector is uploaded (default \"/tmp/hostfacts\")")
	pf.String("artifact", "", "file to upload (default: this executable)")
	pf.String("known-hosts", "", "known_hosts file used with --strict-host-key")
	pf.String("ssh-config", "", "ssh_config file consulted for host aliases (default ~/.ssh/config)")
	pf.Duration("connect-timeout", 0, "limit for connecting and the SSH handshake (default: none)")
	pf.String("package-command", "", "command that lists installed packages (default: auto-detect)")
	pf.StringVar(&a.flags.configPath, "config", "", "config file (default: ./.hostfacts.yaml or ~/.config/hostfacts/config.yaml)")
	pf.BoolVar(&a.flags.strictHostKey, "strict-host-key", false, "only connect to hosts listed in known_hosts")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "disable colored output")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "print debug logs to stderr")

	root.Flags().BoolVarP(&a.flags.remote, "remote", "r", false, "collect facts about this host and print them")

	root.AddCommand(a.newVersionCmd(), a.newConfigCmd())

	return root
}

// noArgs rejects positional arguments as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		if !cmd.HasParent() && cmd.HasSubCommands() {
			return usageError(fmt.Sprintf("unknown command %q for %q", args[0], cmd.CommandPath()))
		}
		return usageError(fmt.Sprintf("unexpected argument %q", args[0]))
	}
	return nil
}

func usageError(msg string) error {
	return errors.New(errors.ErrUsage, msg, "Run 'hostfacts --help' for usage.")
}
