package cli

import (
	"fmt"

	"github.com/rileyhilliard/hostfacts/internal/config"
	"github.com/spf13/cobra"
)

func (a *app) newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration a local run would use, as YAML.

Values come from the config file, HOSTFACTS_* environment variables and
flags, later sources winning. The output can be saved as a config file.

Examples:
  hostfacts config
  hostfacts config -s build01.example --port 2222 > .hostfacts.yaml`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			out, err := config.Render(cfg)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if path != "" {
				fmt.Fprintf(w, "# loaded from %s\n", path)
			} else {
				fmt.Fprintln(w, "# no config file found; defaults, environment and flags only")
			}
			_, err = w.Write(out)
			return err
		},
	}
}
