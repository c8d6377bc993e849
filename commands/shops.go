package commands

import (
	"fmt"
	"io"
	"strings"

	"kiosk/models"

	"github.com/spf13/cobra"
)

func addShopCommands(root *cobra.Command, c *cli) {
	shopsCmd := &cobra.Command{
		Use:   "shops",
		Short: "Browse seller shops",
	}
	shopsCmd.AddCommand(
		&cobra.Command{
			Use:   "list [query]",
			Short: "List shops, optionally matching a name",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.client(cmd)
				if err != nil {
					return err
				}
				sellers, err := a.Shops.List(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				return table(cmd.OutOrStdout(), "ID\tSHOP\tFOLLOWERS", func(w io.Writer) {
					for _, s := range sellers {
						fmt.Fprintf(w, "%s\t%s\t%d\n", s.ID, s.DisplayName(), s.Followers)
					}
				})
			},
		},
		&cobra.Command{
			Use:   "show <seller-id>",
			Short: "Show a shop with its products and mystery boxes",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.client(cmd)
				if err != nil {
					return err
				}
				view, err := a.Shops.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				defer a.Shops.Leave()
				printSeller(cmd, view.Seller)
				if view.Following {
					fmt.Fprintln(cmd.OutOrStdout(), "you follow this shop")
				}
				fmt.Fprintln(cmd.OutOrStdout())
				if err := printProducts(cmd.OutOrStdout(), view.Products); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return printBoxes(cmd.OutOrStdout(), view.Boxes)
			},
		},
	)

	productsCmd := &cobra.Command{
		Use:   "products",
		Short: "Browse products",
	}
	productsCmd.AddCommand(
		&cobra.Command{
			Use:   "list <seller-id>",
			Short: "List a shop's products",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.client(cmd)
				if err != nil {
					return err
				}
				if err := a.Products.Fetch(cmd.Context(), args[0]); err != nil {
					return err
				}
				return printProducts(cmd.OutOrStdout(), a.Products.Products())
			},
		},
		&cobra.Command{
			Use:   "show <product-id>",
			Short: "Show one product",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.client(cmd)
				if err != nil {
					return err
				}
				p, err := a.Products.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "%s [%s]\n", p.Name, p.ID)
				fmt.Fprintf(w, "price: %s\n", money(p.EffectivePrice()))
				if p.EffectivePrice() < p.Price {
					fmt.Fprintf(w, "was: %s\n", money(p.Price))
				}
				fmt.Fprintf(w, "stock: %d\n", p.Stock)
				if p.Description != "" {
					fmt.Fprintln(w, p.Description)
				}
				return nil
			},
		},
	)

	boxesCmd := &cobra.Command{
		Use:   "boxes",
		Short: "Browse mystery boxes",
	}
	boxesCmd.AddCommand(&cobra.Command{
		Use:   "list <seller-id>",
		Short: "List a shop's active mystery boxes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			if err := a.Boxes.Fetch(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printBoxes(cmd.OutOrStdout(), a.Boxes.Boxes())
		},
	})

	root.AddCommand(shopsCmd, productsCmd, boxesCmd)
}

func printProducts(w io.Writer, products []models.Product) error {
	return table(w, "ID\tPRODUCT\tPRICE\tSTOCK", func(tw io.Writer) {
		for _, p := range products {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.ID, p.Name, money(p.EffectivePrice()), p.Stock)
		}
	})
}

func printBoxes(w io.Writer, boxes []models.MysteryBox) error {
	return table(w, "ID\tMYSTERY BOX\tPRICE\tSAVES", func(tw io.Writer) {
		for _, b := range boxes {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.ID, b.Name, money(b.EffectivePrice()), money(b.Savings()))
		}
	})
}
