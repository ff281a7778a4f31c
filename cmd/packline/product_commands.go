package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"packline/internal/domain"
	"packline/internal/station"
)

func newProductCommand(ctx *commandContext) *cobra.Command {
	productCmd := &cobra.Command{
		Use:     "product",
		Aliases: []string{"products"},
		Short:   "Administer the product catalog",
	}

	productCmd.AddCommand(newProductListCommand(ctx))
	productCmd.AddCommand(newProductWriteCommand(ctx, "add", "Create a product",
		func(c context.Context, s *station.Station, code, name, species string) (domain.Product, error) {
			return s.Catalog.Create(c, code, name, species)
		}))
	productCmd.AddCommand(newProductWriteCommand(ctx, "update", "Change the name and species of a product",
		func(c context.Context, s *station.Station, code, name, species string) (domain.Product, error) {
			return s.Catalog.Update(c, code, name, species)
		}))
	productCmd.AddCommand(newProductWriteCommand(ctx, "upsert", "Create or update a product",
		func(c context.Context, s *station.Station, code, name, species string) (domain.Product, error) {
			return s.Catalog.Upsert(c, code, name, species)
		}))
	productCmd.AddCommand(newProductRenameCommand(ctx))
	productCmd.AddCommand(newProductCodeCommand(ctx, "deactivate", "Stop a product from being captured",
		func(c context.Context, s *station.Station, code string) error {
			return s.Catalog.Deactivate(c, code)
		}))
	productCmd.AddCommand(newProductCodeCommand(ctx, "reactivate", "Allow a product to be captured again",
		func(c context.Context, s *station.Station, code string) error {
			return s.Catalog.Reactivate(c, code)
		}))
	productCmd.AddCommand(newProductCodeCommand(ctx, "delete", "Delete a product no piece references",
		func(c context.Context, s *station.Station, code string) error {
			return s.Catalog.Delete(c, code)
		}))

	return productCmd
}

func newProductListCommand(ctx *commandContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStation(false, func(s *station.Station) error {
				list, err := s.Catalog.List(cmd.Context(), all)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					views := make([]productView, 0, len(list))
					for _, p := range list {
						views = append(views, newProductView(p))
					}
					return writeJSON(cmd, views)
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No products")
					return nil
				}
				rows := make([][]string, 0, len(list))
				for _, p := range list {
					used, err := s.Catalog.Usage(cmd.Context(), p.Code)
					if err != nil {
						return err
					}
					rows = append(rows, []string{p.Code, p.Name, p.Species, yesNo(p.Active()), strconv.Itoa(used)})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Code", "Name", "Species", "Active", "Pieces"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include inactive products")
	return cmd
}

func newProductWriteCommand(ctx *commandContext, use, short string, write func(context.Context, *station.Station, string, string, string) (domain.Product, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <code> <name> <species>",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStation(true, func(s *station.Station) error {
				product, err := write(cmd.Context(), s, args[0], args[1], args[2])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Product %s  %s  %s  %s\n", product.Code, product.Name, product.Species, product.State)
				return nil
			})
		},
	}
}

func newProductRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old-code> <new-code>",
		Short: "Change the code of a product no piece references",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStation(true, func(s *station.Station) error {
				product, err := s.Catalog.Rename(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Product %s is now %s\n", args[0], product.Code)
				return nil
			})
		},
	}
}

func newProductCodeCommand(ctx *commandContext, use, short string, apply func(context.Context, *station.Station, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <code>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStation(true, func(s *station.Station) error {
				if err := apply(cmd.Context(), s, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Product %s: %s done\n", args[0], use)
				return nil
			})
		},
	}
}
