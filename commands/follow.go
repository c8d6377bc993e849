package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func addFollowCommands(root *cobra.Command, c *cli) {
	followCmd := &cobra.Command{
		Use:   "follow",
		Short: "Follow shops",
	}
	followCmd.AddCommand(
		&cobra.Command{
			Use:   "toggle <seller-id>",
			Short: "Follow a shop, or unfollow it if you already do",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.client(cmd)
				if err != nil {
					return err
				}
				ctx := cmd.Context()
				if err := a.Follows.Fetch(ctx); err != nil {
					return err
				}
				following, err := a.Follows.Toggle(ctx, args[0])
				if err != nil {
					return err
				}
				verb := "unfollowed"
				if following {
					verb = "following"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d followers)\n", verb, args[0], a.Follows.FollowerCount(args[0]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the shops you follow",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.client(cmd)
				if err != nil {
					return err
				}
				if err := a.Follows.Fetch(cmd.Context()); err != nil {
					return err
				}
				for _, id := range a.Follows.Following() {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			},
		},
	)
	root.AddCommand(followCmd)
}
