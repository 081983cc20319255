package cli

import (
	"time"

	"github.com/rileyhilliard/hostfacts/internal/config"
	"github.com/rileyhilliard/hostfacts/internal/dispatch"
	"github.com/rileyhilliard/hostfacts/internal/target"
	"github.com/rileyhilliard/hostfacts/internal/ui"
	"github.com/spf13/cobra"
)

// loadConfig builds the effective config: file, environment, then flags.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(a.flags.configPath, cmd.Flags())
	if err != nil {
		return nil, "", err
	}
	a.applyFlags(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// applyFlags folds in the flags that don't map one to one onto a config key.
func (a *app) applyFlags(cfg *config.Config) {
	if a.flags.strictHostKey {
		cfg.TrustUnknownHosts = false
	}
	if a.flags.noColor {
		cfg.Color = ui.ColorNever
	}
}

// runLocal pushes the collector to the configured host, runs it and prints
// its report under the results banner.
func (a *app) runLocal(cmd *cobra.Command) error {
	cfg, path, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	if path != "" {
		a.log.Debug("using config %s", path)
	}
	ui.SetColorMode(cfg.Color, a.stderr)

	desc, err := target.New(cfg.Server, cfg.Username, cfg.Key)
	if err != nil {
		return err
	}

	opts := dispatch.Options{
		ArtifactPath:      cfg.Artifact,
		RemotePath:        cfg.RemotePath,
		Port:              cfg.Port,
		TrustUnknownHosts: cfg.TrustUnknownHosts,
		KnownHostsPath:    cfg.KnownHosts,
		SSHConfigPath:     cfg.SSHConfig,
		ConnectTimeout:    cfg.ConnectTimeout,
		PackageCommand:    cfg.PackageCommand,
		Dial:              a.dial,
		Log:               a.log,
	}

	display := ui.NewPhaseDisplay(a.stderr)
	state, err := dispatch.Run(desc, opts, a.stdout, &phaseObserver{display: display, host: desc.Host()})
	a.log.Debug("dispatch to %s ended %s", desc, state)
	return err
}

// phaseObserver renders dispatch phases as progress lines.
type phaseObserver struct {
	display *ui.PhaseDisplay
	host    string
}

type phaseLabels struct {
	progress string
	done     string
	failed   string
}

func (o *phaseObserver) labels(s dispatch.State) phaseLabels {
	switch s {
	case dispatch.Connecting:
		return phaseLabels{
			progress: "Connecting to " + o.host,
			done:     "Connected to " + o.host,
			failed:   "Couldn't connect to " + o.host,
		}
	case dispatch.Uploading:
		return phaseLabels{
			progress: "Uploading collector",
			done:     "Uploaded collector",
			failed:   "Upload failed",
		}
	case dispatch.Executing:
		return phaseLabels{
			progress: "Running collector",
			done:     "Collected report",
			failed:   "Collector failed",
		}
	default:
		name := s.String()
		return phaseLabels{progress: name, done: name, failed: name}
	}
}

func (o *phaseObserver) PhaseStarted(s dispatch.State) {
	o.display.RenderProgress(o.labels(s).progress)
}

func (o *phaseObserver) PhaseFinished(s dispatch.State, elapsed time.Duration, err error) {
	if err != nil {
		o.display.RenderFailed(o.labels(s).failed, elapsed)
		return
	}
	o.display.RenderSuccess(o.labels(s).done, elapsed)
}
