package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"kiosk/apperr"
	"kiosk/globals"
	"kiosk/models"
	"kiosk/pay"
	"kiosk/receipt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func addCartCommands(root *cobra.Command, c *cli) {
	cartCmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage your cart",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "List the lines in your cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			if err := a.Cart.Fetch(cmd.Context()); err != nil {
				return err
			}
			return printCart(cmd, a.Cart.Items(), a.Cart.Count(), a.Cart.Total())
		},
	}

	var qty int
	addCmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product, or bump its quantity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.Cart.Fetch(ctx); err != nil {
				return err
			}
			p, err := a.Products.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.Cart.AddProduct(ctx, *p, qty); err != nil {
				return err
			}
			return printCart(cmd, a.Cart.Items(), a.Cart.Count(), a.Cart.Total())
		},
	}
	addCmd.Flags().IntVarP(&qty, "quantity", "q", 1, "units to add")

	var boxQty int
	addBoxCmd := &cobra.Command{
		Use:   "add-box <seller-id> <box-id>",
		Short: "Add a shop's mystery box",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.Cart.Fetch(ctx); err != nil {
				return err
			}
			if err := a.Boxes.Fetch(ctx, args[0]); err != nil {
				return err
			}
			box, ok := a.Boxes.Find(args[1])
			if !ok {
				return apperr.NotFoundf("Mystery box %s is not on sale in this shop.", args[1])
			}
			if err := a.Cart.AddMysteryBox(ctx, box, boxQty); err != nil {
				return err
			}
			return printCart(cmd, a.Cart.Items(), a.Cart.Count(), a.Cart.Total())
		},
	}
	addBoxCmd.Flags().IntVarP(&boxQty, "quantity", "q", 1, "boxes to add")

	setCmd := &cobra.Command{
		Use:   "set <line-id> <quantity>",
		Short: "Change a line's quantity; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return apperr.Validation(map[string]string{"quantity": "Quantity must be a whole number."})
			}
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			if err := a.Cart.SetQuantity(cmd.Context(), args[0], n); err != nil {
				return err
			}
			return printCart(cmd, a.Cart.Items(), a.Cart.Count(), a.Cart.Total())
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <line-id>",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			if err := a.Cart.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printCart(cmd, a.Cart.Items(), a.Cart.Count(), a.Cart.Total())
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			if err := a.Cart.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cart cleared")
			return nil
		},
	}

	var out, orderID string
	receiptCmd := &cobra.Command{
		Use:   "receipt",
		Short: "Write a PDF checkout summary of the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.Cart.Fetch(ctx); err != nil {
				return err
			}
			if orderID == "" {
				orderID = "ORD-" + uuid.NewString()[:8]
			}
			s := receipt.Summary{
				OrderID:  orderID,
				Currency: a.Config.Pay.Currency,
				Lines:    a.Cart.Items(),
				IssuedAt: time.Now(),
			}
			if cu := a.Session.State().Customer; cu != nil {
				s.Customer = cu.Name
			}
			if a.Config.Pay.Secret != "" && s.Total() > 0 {
				hash, err := pay.CheckoutHash(pay.Checkout{
					MerchantID: a.Config.Pay.MerchantID,
					OrderID:    s.OrderID,
					Amount:     s.Total(),
					Currency:   s.Currency,
				}, a.Config.Pay.Secret)
				if err != nil {
					return err
				}
				s.Hash = hash
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create receipt: %w", err)
			}
			if err := receipt.Render(f, s); err != nil {
				f.Close()
				os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("write receipt: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "receipt %s written to %s\n", s.OrderID, out)
			return nil
		},
	}
	receiptCmd.Flags().StringVarP(&out, "out", "o", "receipt.pdf", "output file")
	receiptCmd.Flags().StringVar(&orderID, "order", "", "order id (default: generated)")

	cartCmd.AddCommand(showCmd, addCmd, addBoxCmd, setCmd, removeCmd, clearCmd, receiptCmd)
	root.AddCommand(cartCmd)
}

func printCart(cmd *cobra.Command, items []models.CartItem, count int, total float64) error {
	w := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(w, "cart is empty")
		return nil
	}
	err := table(w, "LINE\tITEM\tQTY\tPRICE\tTOTAL", func(tw io.Writer) {
		for _, it := range items {
			name := it.Snapshot.Name
			if it.ProductID == globals.MysteryBoxProductID {
				name += " (mystery box)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", it.ID, name, it.Quantity, money(it.Snapshot.Price), money(it.LineTotal()))
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%d items, total %s\n", count, money(total))
	return nil
}
