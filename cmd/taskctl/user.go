package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUserCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User operations (register, get, list)",
	}

	var name, email, avatar string
	register := &cobra.Command{
		Use:   "register --name <name> --email <email>",
		Short: "Register a user (idempotent on email) and print a token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokens, err := e.Tokens()
			if err != nil {
				return err
			}
			stores, err := e.Stores(cmd.Context())
			if err != nil {
				return err
			}
			u, err := stores.Users.Register(cmd.Context(), name, email, avatar)
			if err != nil {
				return fmt.Errorf("register user: %w", err)
			}
			token, err := tokens.Issue(u.ID, u.Name)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"user": u, "token": token})
		},
	}
	register.Flags().StringVar(&name, "name", "", "display name")
	register.Flags().StringVar(&email, "email", "", "email address")
	register.Flags().StringVar(&avatar, "avatar", "", "avatar URL")
	_ = register.MarkFlagRequired("name")
	_ = register.MarkFlagRequired("email")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := e.Stores(cmd.Context())
			if err != nil {
				return err
			}
			u, err := stores.Users.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stores, err := e.Stores(cmd.Context())
			if err != nil {
				return err
			}
			users, err := stores.Users.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), users)
		},
	}

	cmd.AddCommand(register, get, list)
	return cmd
}

func newTokenCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Bearer token operations",
	}

	var name string
	issue := &cobra.Command{
		Use:   "issue <user-id>",
		Short: "Issue a bearer token for a user id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := e.Tokens()
			if err != nil {
				return err
			}
			token, err := tokens.Issue(args[0], name)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	issue.Flags().StringVar(&name, "name", "", "display name claim")

	cmd.AddCommand(issue)
	return cmd
}
