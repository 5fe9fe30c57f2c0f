package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storefront/internal/session"
	"github.com/mesh-intelligence/storefront/pkg/types"
)

func newThemeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Show or set the display theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{session.ThemeLight, session.ThemeDark},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openStorage(); err != nil {
				return err
			}
			theme := session.NewTheme(a.storage)
			if len(args) == 1 {
				if err := theme.Set(args[0]); err != nil {
					if errors.Is(err, types.ErrInvalidTheme) {
						return exitError(exitUserError, "%w", err)
					}
					return exitError(exitSysError, "%w", err)
				}
			}
			current, err := theme.Get()
			if err != nil {
				return exitError(exitSysError, "%w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), current)
			return nil
		},
	}
}
