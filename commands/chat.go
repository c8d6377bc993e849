package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"kiosk/models"

	"github.com/spf13/cobra"
)

func addChatCommands(root *cobra.Command, c *cli) {
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to shops and customers",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			chats, err := a.Chat.Chats(cmd.Context())
			if err != nil {
				return err
			}
			return table(cmd.OutOrStdout(), "ID\tSHOP\tLAST MESSAGE", func(w io.Writer) {
				for _, ch := range chats {
					fmt.Fprintf(w, "%s\t%s\t%s\n", ch.ID, ch.SellerName, ch.LastMessage)
				}
			})
		},
	}

	openCmd := &cobra.Command{
		Use:   "open <seller-id>",
		Short: "Start a conversation with a shop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			ch, err := a.Chat.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ch.ID)
			return nil
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history <chat-id>",
		Short: "Print a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			msgs, err := a.Chat.Messages(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, m := range msgs {
				printMessage(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}

	sendCmd := &cobra.Command{
		Use:   "send <chat-id> <message...>",
		Short: "Send one message and wait for it to be delivered",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			conn, err := a.Chat.Dial(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := conn.Send(strings.Join(args[1:], " ")); err != nil {
				return err
			}
			select {
			case m, ok := <-conn.Incoming():
				if ok {
					printMessage(cmd.OutOrStdout(), m)
				}
			case <-time.After(10 * time.Second):
				return fmt.Errorf("no delivery confirmation from the chat server")
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
			return nil
		},
	}

	listenCmd := &cobra.Command{
		Use:   "listen <chat-id>",
		Short: "Join a conversation; lines read from stdin are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			conn, err := a.Chat.Dial(ctx, args[0])
			if err != nil {
				return err
			}
			defer conn.Close()

			go func() {
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					if line := strings.TrimSpace(sc.Text()); line != "" {
						if err := conn.Send(line); err != nil {
							fmt.Fprintln(cmd.ErrOrStderr(), Describe(err))
							return
						}
					}
				}
			}()

			for {
				select {
				case m, ok := <-conn.Incoming():
					if !ok {
						return nil
					}
					printMessage(cmd.OutOrStdout(), m)
				case <-ctx.Done():
					return nil
				}
			}
		},
	}

	chatCmd.AddCommand(listCmd, openCmd, historyCmd, sendCmd, listenCmd)
	root.AddCommand(chatCmd)
}

func printMessage(w io.Writer, m models.Message) {
	ts := time.Unix(m.Timestamp, 0).Format("2006-01-02 15:04")
	fmt.Fprintf(w, "[%s] %s: %s\n", ts, m.SenderID, m.Content)
}
