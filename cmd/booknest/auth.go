package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"booknest/internal/model"
)

func registerCmd(c *client) *cobra.Command {
	var req model.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a Member account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				password, err := promptSecret(cmd, "Password: ")
				if err != nil {
					return err
				}
				req.Password = password
			}
			if req.ConfirmPassword == "" {
				confirm, err := promptSecret(cmd, "Confirm password: ")
				if err != nil {
					return err
				}
				req.ConfirmPassword = confirm
			}

			message, err := c.auth.Register(cmd.Context(), req)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintln(c.out, message)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Username, "username", "", "Username (3-20 characters)")
	cmd.Flags().StringVar(&req.Password, "password", os.Getenv("BOOKNEST_PASSWORD"), "Password (prompted when empty)")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm-password", "", "Password confirmation (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func loginCmd(c *client) *cobra.Command {
	var req model.LoginRequest

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				password, err := promptSecret(cmd, "Password: ")
				if err != nil {
					return err
				}
				req.Password = password
			}

			resp, err := c.auth.Login(cmd.Context(), c.scope, req)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(c.out, "%s\nSigned in as %s (%s).\n", resp.Message, req.Email, resp.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", os.Getenv("BOOKNEST_PASSWORD"), "Password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func logoutCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.auth.Logout(cmd.Context(), c.scope); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "You have been successfully logged out.")
			return nil
		},
	}
}

func whoamiCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.auth.Current(cmd.Context(), c.scope)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(c.out, "user id: %s\nrole:    %s\n", sess.UserID, sess.Role)
			if len(sess.User) > 0 {
				fmt.Fprintf(c.out, "profile: %s\n", sess.User)
			}
			return nil
		},
	}
}

// promptSecret reads one line from stdin. Input is echoed; use --password
// or BOOKNEST_PASSWORD in scripts.
func promptSecret(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
