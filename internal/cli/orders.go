package cli

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storefront/internal/api"
	"github.com/mesh-intelligence/storefront/internal/table"
	"github.com/mesh-intelligence/storefront/pkg/types"
)

func orderColumns() (table.Config[types.Order], error) {
	cfg, err := table.NewConfig("_id",
		table.Text[types.Order]("_id", "ID"),
		table.Text[types.Order]("customerName", "Customer"),
		table.Column[types.Order]{Kind: table.KindNumber, Header: "Items", Accessor: func(o types.Order) any { return len(o.Items) }},
		table.Column[types.Order]{Kind: table.KindCurrency, Key: "totalAmount", Header: "Total", Sortable: true, SortKey: "total_amount"},
		table.Column[types.Order]{Kind: table.KindString, Key: "status", Sortable: true},
		table.Column[types.Order]{Kind: table.KindDateTime, Key: "createdAt", Header: "Placed", Sortable: true, SortKey: "created_at"},
	)
	cfg.ShowNumber = true
	return cfg, err
}

func newOrdersCmd(a *app) *cobra.Command {
	var (
		page   pageFlags
		status string
	)
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List your orders, or the orders for your store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" && !types.ValidOrderStatus(status) {
				return exitError(exitUserError, "%w: %q", types.ErrInvalidStatus, status)
			}
			q := api.OrderQuery{Pagination: page.pagination(api.OrderSortOptions), Status: status}
			list, err := load[types.Pagination[types.Order]](cmd.Context(), a, cmd, api.PathOrders, q.Query())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return printJSON(out, list)
			}
			cfg, err := orderColumns()
			if err != nil {
				return exitError(exitSysError, "%w", err)
			}
			f, err := a.formatter()
			if err != nil {
				return err
			}
			if err := writeTable(out, f, cfg, list.Data, q.Pagination); err != nil {
				return err
			}
			writePageFooter(out, list.Meta.Page, list.Meta.LastPage, list.Meta.Total, "orders")
			return nil
		},
	}
	page.register(cmd, api.OrderSortOptions)
	cmd.Flags().StringVar(&status, "status", "", "only orders with this status")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one order with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Orders.Get(cmd.Context(), args[0])
			if !res.OK() {
				return failure(res)
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), res.Data.Data)
			}
			f, err := a.formatter()
			if err != nil {
				return err
			}
			return writeOrder(cmd.OutOrStdout(), f, res.Data.Data)
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change an order's status (pending, paid, shipped, completed, cancelled)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Orders.UpdateStatus(cmd.Context(), args[0], args[1])
			if !res.OK() {
				return failure(res)
			}
			a.notify(cmd, res.Data.Message)
			fmt.Fprintf(cmd.OutOrStdout(), "Order %s is now %s\n", res.Data.Data.ID, res.Data.Data.Status)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an order (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Orders.Delete(cmd.Context(), args[0])
			if !res.OK() {
				return failure(res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Data.Message)
			return nil
		},
	}

	cmd.AddCommand(getCmd, statusCmd, deleteCmd)
	return cmd
}

func writeOrder(w io.Writer, f *table.Formatter, o types.Order) error {
	fmt.Fprintf(w, "Order:    %s\nStatus:   %s\nCustomer: %s <%s>\nPlaced:   %s\n\n",
		o.ID, o.Status, o.CustomerName, o.CustomerEmail, f.DateTime(o.CreatedAt))
	cfg, err := table.NewConfig("_id",
		table.Column[types.OrderItem]{Kind: table.KindString, Header: "Product", Accessor: func(it types.OrderItem) any {
			if it.Name != "" {
				return it.Name
			}
			if it.Product.Product != nil {
				return it.Product.Product.Name
			}
			return it.Product.ID
		}},
		table.Currency[types.OrderItem]("price", "Price"),
		table.Number[types.OrderItem]("quantity", "Qty"),
		table.Column[types.OrderItem]{Kind: table.KindCurrency, Header: "Subtotal", Accessor: func(it types.OrderItem) any {
			return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		}},
	)
	if err != nil {
		return exitError(exitSysError, "%w", err)
	}
	if err := table.Render(table.Props[types.OrderItem]{Rows: o.Items, Config: cfg, Format: f}).WriteText(w, 0); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nTotal: %s\n", f.Currency(o.TotalAmount))
	return nil
}
