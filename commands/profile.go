package commands

import (
	"fmt"

	"kiosk/api"
	"kiosk/apperr"
	"kiosk/filemgr"
	"kiosk/maps"
	"kiosk/models"
	"kiosk/session"

	"github.com/spf13/cobra"
)

func addProfileCommands(root *cobra.Command, c *cli) {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your own profile",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Fetch your profile from the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			switch a.Session.State().Kind {
			case session.CustomerSession:
				cu, err := a.Session.FetchCustomerDetails(cmd.Context())
				if err != nil {
					return err
				}
				printCustomer(cmd, *cu)
			case session.SellerSession:
				sl, err := a.Session.FetchSellerDetails(cmd.Context())
				if err != nil {
					return err
				}
				printSeller(cmd, *sl)
			default:
				return apperr.Unauthenticatedf("Log in as a customer or seller to see a profile.")
			}
			return nil
		},
	}

	var (
		fields       map[string]string
		image        string
		banner       string
		lat, lng     float64
		address      string
		pickLocation bool
	)
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields, pictures or location",
		Example: `  kiosk profile update --set phone=0771234567
  kiosk profile update --image me.jpg
  kiosk profile update --address "Kandy"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := map[string]string{}
			for k, v := range fields {
				out[k] = v
			}
			if address != "" || pickLocation {
				var loc maps.Location
				if pickLocation {
					loc, err = a.Picker.Pick(ctx, lat, lng)
				} else {
					loc, err = a.Picker.Search(ctx, address)
				}
				if err != nil {
					return err
				}
				for k, v := range loc.Fields() {
					out[k] = v
				}
			}

			kind := a.Session.State().Kind
			var files []api.File
			add := func(t filemgr.PictureType, path string) error {
				if path == "" {
					return nil
				}
				f, err := filemgr.PrepareImage(t, path, filemgr.MaxWidths[t])
				if err != nil {
					return err
				}
				files = append(files, f)
				return nil
			}

			switch kind {
			case session.CustomerSession:
				if err := add(filemgr.PicProfile, image); err != nil {
					return err
				}
				cu, err := a.Session.UpdateCustomerDetails(ctx, out, files...)
				if err != nil {
					return err
				}
				printCustomer(cmd, *cu)
			case session.SellerSession:
				if err := add(filemgr.PicLogo, image); err != nil {
					return err
				}
				if err := add(filemgr.PicBanner, banner); err != nil {
					return err
				}
				sl, err := a.Session.UpdateSellerDetails(ctx, out, files...)
				if err != nil {
					return err
				}
				printSeller(cmd, *sl)
			default:
				return apperr.Unauthenticatedf("Log in as a customer or seller to update a profile.")
			}
			return nil
		},
	}
	updateCmd.Flags().StringToStringVar(&fields, "set", nil, "field=value pairs")
	updateCmd.Flags().StringVar(&image, "image", "", "profile picture (customer) or logo (seller)")
	updateCmd.Flags().StringVar(&banner, "banner", "", "shop banner (seller)")
	updateCmd.Flags().StringVar(&address, "address", "", "look up and set this address")
	updateCmd.Flags().BoolVar(&pickLocation, "pick", false, "set the location from --lat and --lng")
	updateCmd.Flags().Float64Var(&lat, "lat", 0, "latitude for --pick")
	updateCmd.Flags().Float64Var(&lng, "lng", 0, "longitude for --pick")

	profileCmd.AddCommand(showCmd, updateCmd)
	root.AddCommand(profileCmd)
}

func printCustomer(cmd *cobra.Command, cu models.Customer) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s <%s>\n", cu.Name, cu.Email)
	if cu.Phone != "" {
		fmt.Fprintf(w, "phone: %s\n", cu.Phone)
	}
	if cu.Location != "" {
		fmt.Fprintf(w, "location: %s\n", cu.Location)
	}
}

func printSeller(cmd *cobra.Command, sl models.Seller) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s [%s]\n", sl.DisplayName(), sl.ID)
	if sl.Description != "" {
		fmt.Fprintln(w, sl.Description)
	}
	if sl.Location != "" {
		fmt.Fprintf(w, "location: %s\n", sl.Location)
	}
	fmt.Fprintf(w, "followers: %d\n", sl.Followers)
}
