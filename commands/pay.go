package commands

import (
	"fmt"

	"kiosk/pay"

	"github.com/spf13/cobra"
)

func addPayCommands(root *cobra.Command, c *cli) {
	payCmd := &cobra.Command{
		Use:   "pay",
		Short: "Payment gateway digests",
	}

	var co pay.Checkout
	hashCmd := &cobra.Command{
		Use:   "hash",
		Short: "Sign a checkout with the merchant secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if co.MerchantID == "" {
				co.MerchantID = c.cfg.Pay.MerchantID
			}
			if co.Currency == "" {
				co.Currency = c.cfg.Pay.Currency
			}
			hash, err := pay.CheckoutHash(co, c.cfg.Pay.Secret)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	hashCmd.Flags().StringVar(&co.MerchantID, "merchant", "", "merchant id (default: config)")
	hashCmd.Flags().StringVar(&co.OrderID, "order", "", "order id")
	hashCmd.Flags().Float64Var(&co.Amount, "amount", 0, "order total")
	hashCmd.Flags().StringVar(&co.Currency, "currency", "", "currency code (default: config)")

	var n pay.Notification
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a payment notification's signature",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if n.MerchantID == "" {
				n.MerchantID = c.cfg.Pay.MerchantID
			}
			w := cmd.OutOrStdout()
			switch {
			case !pay.VerifyNotification(n, c.cfg.Pay.Secret):
				fmt.Fprintln(w, "invalid signature")
				return fmt.Errorf("notification for order %s is not authentic", n.OrderID)
			case pay.Paid(n, c.cfg.Pay.Secret):
				fmt.Fprintln(w, "paid")
			default:
				fmt.Fprintf(w, "authentic, status %s\n", n.StatusCode)
			}
			return nil
		},
	}
	verifyCmd.Flags().StringVar(&n.MerchantID, "merchant", "", "merchant id (default: config)")
	verifyCmd.Flags().StringVar(&n.OrderID, "order", "", "order id")
	verifyCmd.Flags().StringVar(&n.Amount, "amount", "", "amount exactly as sent, e.g. 1000.00")
	verifyCmd.Flags().StringVar(&n.Currency, "currency", "", "currency code")
	verifyCmd.Flags().StringVar(&n.StatusCode, "status", "", "status code")
	verifyCmd.Flags().StringVar(&n.MD5Sig, "sig", "", "md5sig")

	payCmd.AddCommand(hashCmd, verifyCmd)
	root.AddCommand(payCmd)
}
