package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storefront/internal/api"
	"github.com/mesh-intelligence/storefront/internal/table"
	"github.com/mesh-intelligence/storefront/pkg/types"
)

// productColumns is the catalog listing.
func productColumns() (table.Config[types.Product], error) {
	cfg, err := table.NewConfig("_id",
		table.Text[types.Product]("_id", "ID"),
		table.Column[types.Product]{Kind: table.KindString, Key: "name", Sortable: true},
		table.Text[types.Product]("category.name", "Category"),
		table.Text[types.Product]("store.name", "Store"),
		table.Column[types.Product]{Kind: table.KindCurrency, Key: "price", Sortable: true},
		table.Column[types.Product]{Kind: table.KindNumber, Key: "stock", Sortable: true},
		table.Column[types.Product]{Kind: table.KindDate, Key: "createdAt", Header: "Added", Sortable: true, SortKey: "created_at"},
	)
	cfg.ShowNumber = true
	return cfg, err
}

func newProductsCmd(a *app) *cobra.Command {
	var (
		page       pageFlags
		categoryID string
		storeID    string
		inStock    bool
	)
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := api.ProductQuery{
				Pagination: page.pagination(api.ProductSortOptions),
				CategoryID: categoryID,
				StoreID:    storeID,
				InStock:    inStock,
			}
			list, err := load[types.Pagination[types.Product]](cmd.Context(), a, cmd, api.PathProducts, q.Query())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return printJSON(out, list)
			}
			cfg, err := productColumns()
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
			writePageFooter(out, list.Meta.Page, list.Meta.LastPage, list.Meta.Total, "products")
			return nil
		},
	}
	page.register(cmd, api.ProductSortOptions)
	cmd.Flags().StringVar(&categoryID, "category", "", "only products in this category ID")
	cmd.Flags().StringVar(&storeID, "store", "", "only products of this store ID")
	cmd.Flags().BoolVar(&inStock, "in-stock", false, "only products with stock left")

	cmd.AddCommand(
		newProductGetCmd(a),
		newProductCreateCmd(a),
		newProductUpdateCmd(a),
		newProductDeleteCmd(a),
	)
	return cmd
}

func newProductGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Products.Get(cmd.Context(), args[0])
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
			writeProduct(cmd.OutOrStdout(), f, res.Data.Data)
			return nil
		},
	}
}

func writeProduct(w io.Writer, f *table.Formatter, p types.Product) {
	fmt.Fprintf(w, "ID:          %s\n", p.ID)
	fmt.Fprintf(w, "Name:        %s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", p.Description)
	}
	fmt.Fprintf(w, "Price:       %s\n", f.Currency(p.Price))
	fmt.Fprintf(w, "Stock:       %s\n", f.Number(p.Stock))
	fmt.Fprintf(w, "Category:    %s\n", p.Category.Name)
	fmt.Fprintf(w, "Store:       %s\n", p.Store.Name)
	if p.ImageURL != "" {
		fmt.Fprintf(w, "Image:       %s\n", f.URL(p.ImageURL))
	}
	fmt.Fprintf(w, "Added:       %s\n", f.Date(p.CreatedAt))
}

// productFlags binds the product form to command flags.
type productFlags struct {
	name        string
	description string
	price       string
	stock       int
	categoryID  string
	image       string
}

func (pf *productFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&pf.name, "name", "", "product name")
	fl.StringVar(&pf.description, "description", "", "product description")
	fl.StringVar(&pf.price, "price", "", "unit price")
	fl.IntVar(&pf.stock, "stock", 0, "units in stock")
	fl.StringVar(&pf.categoryID, "category", "", "category ID")
	fl.StringVar(&pf.image, "image", "", "path of an image file to upload")
}

// apply overlays the flags the user set on in.
func (pf *productFlags) apply(cmd *cobra.Command, in *types.ProductInput) error {
	fl := cmd.Flags()
	if fl.Changed("name") {
		in.Name = pf.name
	}
	if fl.Changed("description") {
		in.Description = pf.description
	}
	if fl.Changed("price") {
		price, err := decimal.NewFromString(pf.price)
		if err != nil {
			return exitError(exitUserError, "invalid price %q: %w", pf.price, err)
		}
		in.Price = price
	}
	if fl.Changed("stock") {
		in.Stock = pf.stock
	}
	if fl.Changed("category") {
		in.CategoryID = pf.categoryID
	}
	in.Image = pf.image
	return nil
}

func newProductCreateCmd(a *app) *cobra.Command {
	var pf productFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a product to your store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in types.ProductInput
			if err := pf.apply(cmd, &in); err != nil {
				return err
			}
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Products.Create(cmd.Context(), in)
			if !res.OK() {
				return failure(res)
			}
			a.notify(cmd, res.Data.Message)
			return a.printProductID(cmd, res.Data.Data)
		},
	}
	pf.register(cmd)
	return cmd
}

func newProductUpdateCmd(a *app) *cobra.Command {
	var pf productFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a product; unset flags keep their current values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			in, err := currentProduct(cmd.Context(), svc, args[0])
			if err != nil {
				return err
			}
			if err := pf.apply(cmd, &in); err != nil {
				return err
			}
			res := svc.Products.Update(cmd.Context(), args[0], in)
			if !res.OK() {
				return failure(res)
			}
			a.notify(cmd, res.Data.Message)
			return a.printProductID(cmd, res.Data.Data)
		},
	}
	pf.register(cmd)
	return cmd
}

// currentProduct loads a product as form input for a partial update.
func currentProduct(ctx context.Context, svc *api.Services, id string) (types.ProductInput, error) {
	res := svc.Products.Get(ctx, id)
	if !res.OK() {
		return types.ProductInput{}, failure(res)
	}
	p := res.Data.Data
	return types.ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		CategoryID:  p.Category.ID,
	}, nil
}

func (a *app) printProductID(cmd *cobra.Command, p types.Product) error {
	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), p)
	}
	fmt.Fprintln(cmd.OutOrStdout(), p.ID)
	return nil
}

func newProductDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a product from your store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Products.Delete(cmd.Context(), args[0])
			if !res.OK() {
				return failure(res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Data.Message)
			return nil
		},
	}
}
