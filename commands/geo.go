package commands

import (
	"fmt"
	"strconv"
	"strings"

	"kiosk/apperr"
	"kiosk/maps"

	"github.com/spf13/cobra"
)

func addGeoCommands(root *cobra.Command, c *cli) {
	geoCmd := &cobra.Command{
		Use:   "geo",
		Short: "Look up shop and delivery locations",
	}
	geoCmd.AddCommand(
		&cobra.Command{
			Use:   "search <address...>",
			Short: "Find the coordinates of an address",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.client(cmd)
				if err != nil {
					return err
				}
				loc, err := a.Picker.Search(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				printLocation(cmd, loc)
				return nil
			},
		},
		&cobra.Command{
			Use:   "reverse <lat> <lng>",
			Short: "Find the address of a point",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				lat, err1 := strconv.ParseFloat(args[0], 64)
				lng, err2 := strconv.ParseFloat(args[1], 64)
				if err1 != nil || err2 != nil {
					return apperr.Validation(map[string]string{"location": "Coordinates must be numbers."})
				}
				a, err := c.client(cmd)
				if err != nil {
					return err
				}
				loc, err := a.Picker.Pick(cmd.Context(), lat, lng)
				if err != nil {
					return err
				}
				printLocation(cmd, loc)
				return nil
			},
		},
	)
	root.AddCommand(geoCmd)
}

func printLocation(cmd *cobra.Command, loc maps.Location) {
	f := loc.Fields()
	fmt.Fprintf(cmd.OutOrStdout(), "%s, %s  %s\n", f["latitude"], f["longitude"], loc.FormattedAddress)
}
