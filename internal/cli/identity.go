package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSessionCommand creates the session command group: sign-in, sign-out,
// and whoami.
func NewSessionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the shopper identity",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "signin <user-id>",
		Short:         "Record the authenticated user and merge the guest cart",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.ids.SetAuthenticated(args[0]); err != nil {
				return err
			}
			if err := s.merges.OnAuthenticated(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "guest cart merge deferred: %v\n", err)
			}
			return printCart(cmd, rootOpts, s.carts.Cart(), s.carts.Degraded())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "signout",
		Short:         "Drop the authenticated identity",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.ids.SignOut(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "whoami",
		Short:         "Show the active shopper identity",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.ids.Resolve()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", id.Kind, id.ID)
			return nil
		},
	})

	return cmd
}
