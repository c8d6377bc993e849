package commands

import (
	"fmt"
	"strings"

	"kiosk/apperr"
	"kiosk/validate"

	"github.com/spf13/cobra"
)

func addCheckCommands(root *cobra.Command, c *cli) {
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate form input offline",
	}
	checkCmd.AddCommand(
		&cobra.Command{
			Use:   "email <address>",
			Short: "Check an email address's shape",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if !validate.IsValidEmail(args[0]) {
					return apperr.Validation(map[string]string{"email": "Enter a valid email address."})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			},
		},
		&cobra.Command{
			Use:   "password <password>",
			Short: "Show the password checklist",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s := validate.PasswordStrength(args[0])
				w := cmd.OutOrStdout()
				r := s.Requirements
				for _, item := range []struct {
					ok   bool
					name string
				}{
					{r.MinLength, fmt.Sprintf("%d+ characters", validate.MinPasswordLength)},
					{r.Upper, "uppercase letter"},
					{r.Lower, "lowercase letter"},
					{r.Digit, "number"},
					{r.Special, "special character (optional)"},
				} {
					mark := " "
					if item.ok {
						mark = "x"
					}
					fmt.Fprintf(w, "[%s] %s\n", mark, item.name)
				}
				if !s.IsValid {
					return apperr.Validation(map[string]string{"password": "Password needs " + strings.Join(s.Missing(), ", ") + "."})
				}
				return nil
			},
		},
	)
	root.AddCommand(checkCmd)
}
