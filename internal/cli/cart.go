package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storefront/internal/cart"
	"github.com/mesh-intelligence/storefront/internal/table"
	"github.com/mesh-intelligence/storefront/pkg/types"
)

// openCart rehydrates the cart saved in local storage.
func (a *app) openCart(ctx context.Context) (*cart.Store, error) {
	if err := a.openStorage(); err != nil {
		return nil, err
	}
	c, err := cart.New(ctx, cart.NewKVPersister(a.storage), a.logger.Named("cart"))
	if err != nil {
		return nil, exitError(exitSysError, "%w", err)
	}
	return c, nil
}

func newCartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCart(cmd.Context())
			if err != nil {
				return err
			}
			return a.writeCart(cmd, c)
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <product-id> [quantity]",
		Short: "Add a product to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity := 1
			if len(args) == 2 {
				n, err := parseQuantity(args[1])
				if err != nil {
					return err
				}
				quantity = n
			}
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Products.Get(cmd.Context(), args[0])
			if !res.OK() {
				return failure(res)
			}
			c, err := a.openCart(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.AddItem(cmd.Context(), res.Data.Data, quantity); err != nil {
				return exitError(exitUserError, "%w", err)
			}
			item, _ := c.Item(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s × %d in cart\n", item.Product.Name, item.Quantity)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set a cart item's quantity; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return exitError(exitUserError, "invalid quantity %q", args[1])
			}
			c, err := a.openCart(cmd.Context())
			if err != nil {
				return err
			}
			if _, ok := c.Item(args[0]); !ok {
				return exitError(exitUserError, "product %s is not in the cart", args[0])
			}
			if err := c.UpdateQuantity(cmd.Context(), args[0], n); err != nil {
				return exitError(exitSysError, "%w", err)
			}
			return a.writeCart(cmd, c)
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCart(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.RemoveItem(cmd.Context(), args[0]); err != nil {
				return exitError(exitSysError, "%w", err)
			}
			return a.writeCart(cmd, c)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCart(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.ClearCart(cmd.Context()); err != nil {
				return exitError(exitSysError, "%w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cart cleared")
			return nil
		},
	}

	cmd.AddCommand(addCmd, setCmd, removeCmd, clearCmd)
	return cmd
}

func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, exitError(exitUserError, "%w: %q", types.ErrInvalidQuantity, s)
	}
	return n, nil
}

func cartColumns() (table.Config[types.CartItem], error) {
	return table.NewConfig("product._id",
		table.Text[types.CartItem]("product._id", "ID"),
		table.Text[types.CartItem]("product.name", "Product"),
		table.Currency[types.CartItem]("product.price", "Price"),
		table.Number[types.CartItem]("quantity", "Qty"),
		table.Column[types.CartItem]{
			Kind:     table.KindCurrency,
			Header:   "Subtotal",
			Accessor: func(item types.CartItem) any { return item.Subtotal() },
		},
	)
}

func (a *app) writeCart(cmd *cobra.Command, c *cart.Store) error {
	out := cmd.OutOrStdout()
	items := c.Items()
	if a.flags.jsonMode {
		return printJSON(out, map[string]any{
			"items":      items,
			"totalItems": c.TotalItems(),
			"totalPrice": c.TotalPrice(),
		})
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "Your cart is empty")
		return nil
	}
	cfg, err := cartColumns()
	if err != nil {
		return exitError(exitSysError, "%w", err)
	}
	f, err := a.formatter()
	if err != nil {
		return err
	}
	if err := table.Render(table.Props[types.CartItem]{Rows: items, Config: cfg, Format: f}).WriteText(out, 0); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d items, total %s\n", c.TotalItems(), f.Currency(c.TotalPrice()))
	return nil
}

func newCheckoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for everything in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			c, err := a.openCart(cmd.Context())
			if err != nil {
				return err
			}
			res := svc.Orders.Checkout(cmd.Context(), c)
			if !res.OK() {
				return failure(res)
			}
			order := res.Data.Data
			a.notify(cmd, res.Data.Message)
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), order)
			}
			f, err := a.formatter()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order %s placed: %s (%s)\n", order.ID, f.Currency(order.TotalAmount), order.Status)
			return nil
		},
	}
}
