package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration in config file format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, app)
			if err != nil {
				return err
			}
			if cfg.Source != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "loaded %s\n", cfg.Source)
			}
			return cfg.Encode(cmd.OutOrStdout())
		},
	}
}
