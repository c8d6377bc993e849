package commands

import (
	"fmt"

	"kiosk/api"
	"kiosk/filemgr"
	"kiosk/session"
	"kiosk/validate"

	"github.com/spf13/cobra"
)

func addAuthCommands(root *cobra.Command, c *cli) {
	var email, password string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as a customer, seller or admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			if err := a.Session.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			a.Cart.Reset()
			a.Follows.Clear()
			return printWhoami(cmd, a.Session.State())
		},
	}
	loginCmd.Flags().StringVar(&email, "email", "", "account email")
	loginCmd.Flags().StringVar(&password, "password", "", "account password")

	var form validate.CustomerSignup
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create a customer account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			if err := a.Session.Register(cmd.Context(), form); err != nil {
				return err
			}
			return printWhoami(cmd, a.Session.State())
		},
	}
	registerCmd.Flags().StringVar(&form.Name, "name", "", "full name")
	registerCmd.Flags().StringVar(&form.Email, "email", "", "email")
	registerCmd.Flags().StringVar(&form.Password, "password", "", "password")
	registerCmd.Flags().StringVar(&form.ConfirmPassword, "confirm", "", "password again")
	registerCmd.Flags().StringVar(&form.Phone, "phone", "", "phone number")
	registerCmd.Flags().StringVar(&form.Location, "location", "", "address")

	var seller validate.SellerSignup
	var logo string
	sellerCmd := &cobra.Command{
		Use:   "register-seller",
		Short: "Create a seller account and shop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			var files []api.File
			if logo != "" {
				f, err := filemgr.PrepareImage(filemgr.PicLogo, logo, filemgr.MaxWidths[filemgr.PicLogo])
				if err != nil {
					return err
				}
				files = append(files, f)
			}
			if err := a.Session.SellerRegister(cmd.Context(), seller, files...); err != nil {
				return err
			}
			return printWhoami(cmd, a.Session.State())
		},
	}
	sellerCmd.Flags().StringVar(&seller.Name, "name", "", "owner name")
	sellerCmd.Flags().StringVar(&seller.Email, "email", "", "email")
	sellerCmd.Flags().StringVar(&seller.Password, "password", "", "password")
	sellerCmd.Flags().StringVar(&seller.ConfirmPassword, "confirm", "", "password again")
	sellerCmd.Flags().StringVar(&seller.Phone, "phone", "", "phone number")
	sellerCmd.Flags().StringVar(&seller.BusinessName, "business", "", "shop name")
	sellerCmd.Flags().StringVar(&seller.BusinessType, "type", "", "business type")
	sellerCmd.Flags().StringVar(&seller.Description, "description", "", "shop description")
	sellerCmd.Flags().StringVar(&seller.Location, "location", "", "shop address")
	sellerCmd.Flags().StringVar(&logo, "logo", "", "logo image file")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			if err := a.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			return printWhoami(cmd, a.Session.State())
		},
	}

	root.AddCommand(loginCmd, registerCmd, sellerCmd, logoutCmd, whoamiCmd)
}

func printWhoami(cmd *cobra.Command, st session.State) error {
	w := cmd.OutOrStdout()
	if !st.Authenticated() {
		fmt.Fprintln(w, "anonymous")
		return nil
	}
	switch {
	case st.Customer != nil:
		fmt.Fprintf(w, "%s %s <%s>\n", st.Kind, st.Customer.Name, st.Customer.Email)
	case st.Seller != nil:
		fmt.Fprintf(w, "%s %s (%s)\n", st.Kind, st.Seller.DisplayName(), st.Seller.Email)
	default:
		fmt.Fprintf(w, "%s %s\n", st.Kind, st.SubjectID)
	}
	return nil
}
