package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storefront/internal/fakeapi"
)

func newMockServerCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Serve an in-memory marketplace API with demo data",
		Long: fmt.Sprintf(`Serve an in-memory marketplace API seeded with demo accounts.

Accounts (password %q):
  %s (admin)
  %s (seller)
  %s (buyer)`, fakeapi.DemoPassword, fakeapi.AdminEmail, fakeapi.SellerEmail, fakeapi.BuyerEmail),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := fakeapi.New(fakeapi.WithLogger(a.logger.Named("fakeapi")))
			err := srv.ListenAndServe(cmd.Context(), addr, func(bound string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Mock marketplace API listening on http://%s\n", bound)
			})
			if err != nil {
				return exitError(exitSysError, "%w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	return cmd
}
