package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storefront/internal/paths"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize storefront configuration and local storage",
		Long:  "Create the configuration and data directories, write a default config.yaml\nif none exists, and initialize the local storage file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := paths.Dirs{Config: a.configDir, Data: a.dataDir}
			if err := dirs.Ensure(); err != nil {
				return exitError(exitSysError, "%w", err)
			}
			if err := a.openStorage(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Storefront initialized successfully")
			fmt.Fprintf(out, "config: %s\ndata:   %s\n", dirs.Config, dirs.Data)
			return nil
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after applying config.yaml, .env, STOREFRONT_*\nenvironment variables, and command-line flags.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"config_dir": a.configDir,
					"data_dir":   a.dataDir,
					"config":     a.cfg,
				})
			}
			data, err := a.cfg.YAML()
			if err != nil {
				return exitError(exitSysError, "%w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# config_dir: %s\n# data_dir: %s\n%s", a.configDir, a.dataDir, data)
			return nil
		},
	}
}
