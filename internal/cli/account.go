package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Check a username and password",
		Long:  "Login verifies the credentials of an active account and prints the user without its password hash. Usernames match case-insensitively.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, "login", func(ctx context.Context, s *session) error {
				u, err := s.svc.Login(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]any{"user": u})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s, id %s)\n", u.Username, u.Role, u.ID)
				return nil
			})
		},
	}
}

func (a *app) newPasswdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd <user-id> <current> <new>",
		Short: "Change a user's password",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, "passwd", func(ctx context.Context, s *session) error {
				if err := s.svc.ChangePassword(ctx, args[0], args[1], args[2]); err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]bool{"success": true})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "password changed")
				return nil
			})
		},
	}
}
