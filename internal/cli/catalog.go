package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storefront/internal/api"
	"github.com/mesh-intelligence/storefront/internal/fetch"
	"github.com/mesh-intelligence/storefront/internal/table"
	"github.com/mesh-intelligence/storefront/pkg/types"
)

var categorySortOptions = []string{"id", "name"}

func newCategoriesCmd(a *app) *cobra.Command {
	var page pageFlags
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List product categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := page.pagination(categorySortOptions)
			list, err := load[types.Pagination[types.Category]](cmd.Context(), a, cmd, api.PathCategories, p.Config())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return printJSON(out, list)
			}
			cfg, err := table.NewConfig("_id",
				table.Text[types.Category]("_id", "ID"),
				table.Column[types.Category]{Kind: table.KindString, Key: "name", Sortable: true},
				table.Text[types.Category]("description", ""),
			)
			if err != nil {
				return exitError(exitSysError, "%w", err)
			}
			f, err := a.formatter()
			if err != nil {
				return err
			}
			if err := writeTable(out, f, cfg, list.Data, p); err != nil {
				return err
			}
			writePageFooter(out, list.Meta.Page, list.Meta.LastPage, list.Meta.Total, "categories")
			return nil
		},
	}
	page.register(cmd, categorySortOptions)

	var in api.CategoryInput
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Add a category (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Categories.Create(cmd.Context(), in)
			if !res.OK() {
				return failure(res)
			}
			a.notify(cmd, res.Data.Message)
			fmt.Fprintln(cmd.OutOrStdout(), res.Data.Data.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&in.Name, "name", "", "category name")
	createCmd.Flags().StringVar(&in.Description, "description", "", "category description")

	var upd api.CategoryInput
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a category (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Categories.Update(cmd.Context(), args[0], upd)
			if !res.OK() {
				return failure(res)
			}
			a.notify(cmd, res.Data.Message)
			fmt.Fprintln(cmd.OutOrStdout(), res.Data.Data.ID)
			return nil
		},
	}
	updateCmd.Flags().StringVar(&upd.Name, "name", "", "category name")
	updateCmd.Flags().StringVar(&upd.Description, "description", "", "category description")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an empty category (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Categories.Delete(cmd.Context(), args[0])
			if !res.OK() {
				return failure(res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Data.Message)
			return nil
		},
	}

	cmd.AddCommand(createCmd, updateCmd, deleteCmd)
	return cmd
}

func newStoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Show your store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Stores.Mine(cmd.Context())
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
			writeStore(cmd.OutOrStdout(), f, res.Data.Data)
			return nil
		},
	}

	save := func(use, short string, update bool) *cobra.Command {
		var in types.StoreInput
		c := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := a.services()
				if err != nil {
					return err
				}
				var res fetch.Result[types.DataResponse[types.Store]]
				if update {
					mine := svc.Stores.Mine(cmd.Context())
					if !mine.OK() {
						return failure(mine)
					}
					if !cmd.Flags().Changed("name") {
						in.Name = mine.Data.Data.Name
					}
					if !cmd.Flags().Changed("description") {
						in.Description = mine.Data.Data.Description
					}
					res = svc.Stores.Update(cmd.Context(), in)
				} else {
					res = svc.Stores.Create(cmd.Context(), in)
				}
				if !res.OK() {
					return failure(res)
				}
				a.notify(cmd, res.Data.Message)
				fmt.Fprintln(cmd.OutOrStdout(), res.Data.Data.ID)
				return nil
			},
		}
		c.Flags().StringVar(&in.Name, "name", "", "store name")
		c.Flags().StringVar(&in.Description, "description", "", "store description")
		c.Flags().StringVar(&in.Avatar, "avatar", "", "path of an avatar image to upload")
		return c
	}

	cmd.AddCommand(
		save("create", "Open a store for your account", false),
		save("update", "Change your store", true),
	)
	return cmd
}

func writeStore(w io.Writer, f *table.Formatter, s types.Store) {
	fmt.Fprintf(w, "ID:          %s\nName:        %s\n", s.ID, s.Name)
	if s.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", s.Description)
	}
	if s.AvatarURL != "" {
		fmt.Fprintf(w, "Avatar:      %s\n", f.URL(s.AvatarURL))
	}
}
