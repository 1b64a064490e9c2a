package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"cartsync/internal/model"
)

// WishlistOptions holds flags for the wishlist toggle command.
type WishlistOptions struct {
	*RootOptions
	Name  string
	Price string
}

// NewWishlistCommand creates the wishlist command group.
func NewWishlistCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Inspect and toggle the wishlist (requires sign-in)",
	}

	cmd.AddCommand(newWishlistListCommand(rootOpts))
	cmd.AddCommand(newWishlistToggleCommand(rootOpts))

	return cmd
}

func newWishlistListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "ls",
		Short:         "List saved products",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.wishes.Load(cmd.Context())
			if err != nil {
				return err
			}
			return printWishlist(cmd, rootOpts, entries)
		},
	}
}

func newWishlistToggleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WishlistOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "toggle <product-id>",
		Short:         "Add the product to the wishlist, or remove it if present",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			price := model.ParseCents(opts.Price)
			if price <= 0 {
				return fmt.Errorf("--price %q is not a positive amount", opts.Price)
			}

			s, err := openSession(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			// Sync first so the toggle sees the server's membership.
			if _, err := s.wishes.Load(cmd.Context()); err != nil {
				return err
			}

			product := model.Product{ID: args[0], Name: opts.Name, Price: price}
			added, err := s.wishes.Toggle(cmd.Context(), product)
			if err != nil {
				return err
			}
			if added {
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			}
			return printWishlist(cmd, rootOpts, s.wishes.Entries())
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "product display name")
	cmd.Flags().StringVar(&opts.Price, "price", "", "unit price, e.g. 34.50")
	cmd.MarkFlagRequired("price")

	return cmd
}

func printWishlist(cmd *cobra.Command, opts *RootOptions, entries []model.WishlistEntry) error {
	out := cmd.OutOrStdout()

	if opts.Format == "json" {
		return json.NewEncoder(out).Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "wishlist is empty")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%-14s %-24s %10s\n", e.ProductID, e.Name, model.FormatCents(e.Price))
	}
	return nil
}
