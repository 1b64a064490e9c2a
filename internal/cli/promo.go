package cli

import (
	"github.com/spf13/cobra"
)

// NewPromoCommand creates the promo command group.
func NewPromoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promo",
		Short: "Apply or remove a promo code",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "apply <code>",
		Short:         "Apply a promo code to the cart",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			c, err := s.carts.ApplyPromo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printCart(cmd, rootOpts, c, s.carts.Degraded())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "rm",
		Short:         "Remove the active promo code",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			c, err := s.carts.RemovePromo(cmd.Context())
			if err != nil {
				return err
			}
			return printCart(cmd, rootOpts, c, s.carts.Degraded())
		},
	})

	return cmd
}
