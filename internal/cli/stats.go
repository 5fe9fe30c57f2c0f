package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storefront/internal/table"
	"github.com/mesh-intelligence/storefront/pkg/types"
)

func newStatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard figures",
	}

	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Marketplace-wide totals (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Dashboard.Admin(cmd.Context())
			if !res.OK() {
				return failure(res)
			}
			stats := res.Data.Data
			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return printJSON(out, stats)
			}
			f, err := a.formatter()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Users:    %s\n", f.Number(stats.TotalUsers))
			fmt.Fprintf(out, "Stores:   %s\n", f.Number(stats.TotalStores))
			fmt.Fprintf(out, "Products: %s\n", f.Number(stats.TotalProducts))
			fmt.Fprintf(out, "Orders:   %s\n", f.Number(stats.TotalOrders))
			fmt.Fprintf(out, "Revenue:  %s\n", f.Currency(stats.TotalRevenue))
			return nil
		},
	}

	sellerCmd := &cobra.Command{
		Use:   "seller",
		Short: "Totals and recent orders for your store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Dashboard.Seller(cmd.Context())
			if !res.OK() {
				return failure(res)
			}
			stats := res.Data.Data
			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return printJSON(out, stats)
			}
			f, err := a.formatter()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Products: %s\n", f.Number(stats.TotalProducts))
			fmt.Fprintf(out, "Orders:   %s\n", f.Number(stats.TotalOrders))
			fmt.Fprintf(out, "Revenue:  %s\n", f.Currency(stats.TotalRevenue))
			if len(stats.RecentOrders) == 0 {
				return nil
			}
			fmt.Fprintln(out, "\nRecent orders")
			cfg, err := orderColumns()
			if err != nil {
				return exitError(exitSysError, "%w", err)
			}
			return table.Render(table.Props[types.Order]{Rows: stats.RecentOrders, Config: cfg, Format: f}).WriteText(out, 0)
		},
	}

	cmd.AddCommand(adminCmd, sellerCmd)
	return cmd
}
