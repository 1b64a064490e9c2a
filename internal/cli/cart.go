package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cartsync/internal/model"
)

// CartOptions holds flags for the cart add command.
type CartOptions struct {
	*RootOptions
	Name    string
	Price   string
	Qty     int
	Variant string
}

// NewCartCommand creates the cart command group.
func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and mutate the shopping cart",
	}

	cmd.AddCommand(newCartGetCommand(rootOpts))
	cmd.AddCommand(newCartAddCommand(rootOpts))
	cmd.AddCommand(newCartQtyCommand(rootOpts))
	cmd.AddCommand(newCartRemoveCommand(rootOpts))
	cmd.AddCommand(newCartClearCommand(rootOpts))

	return cmd
}

func newCartGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get",
		Short:         "Show the current cart",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			// Unconfirmed offline changes are shown as-is; fetching the
			// server cart here would hide them until a resync.
			if s.carts.HasLocalChanges() {
				return printCart(cmd, rootOpts, s.carts.Cart(), true)
			}

			c, err := s.carts.Load(cmd.Context())
			if err != nil {
				return err
			}
			return printCart(cmd, rootOpts, c, s.carts.Degraded())
		},
	}
}

func newCartAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CartOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Long: `Add a product to the cart.

Example:
  cartctl cart add prod-1 --name "Coffee Mug" --price 24.99 --qty 3`,
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

			product := model.Product{ID: args[0], Name: opts.Name, Price: price}
			c, err := s.carts.Add(cmd.Context(), product, opts.Qty, opts.Variant)
			if err != nil {
				return err
			}
			return printCart(cmd, rootOpts, c, s.carts.Degraded())
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "product display name")
	cmd.Flags().StringVar(&opts.Price, "price", "", "unit price, e.g. 24.99")
	cmd.Flags().IntVar(&opts.Qty, "qty", 1, "quantity to add")
	cmd.Flags().StringVar(&opts.Variant, "variant", "", "variant such as size or color")
	cmd.MarkFlagRequired("price")

	return cmd
}

func newCartQtyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "qty <item-id> <quantity>",
		Short:         "Set the quantity of a cart line item (0 removes it)",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q: %w", args[1], err)
			}

			s, err := openSession(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			c, err := s.carts.UpdateQuantity(cmd.Context(), args[0], qty)
			if err != nil {
				return err
			}
			return printCart(cmd, rootOpts, c, s.carts.Degraded())
		},
	}
}

func newCartRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rm <item-id>",
		Short:         "Remove a line item from the cart",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			c, err := s.carts.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printCart(cmd, rootOpts, c, s.carts.Degraded())
		},
	}
}

func newCartClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear",
		Short:         "Empty the cart, promo included",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			c, err := s.carts.Clear(cmd.Context())
			if err != nil {
				return err
			}
			return printCart(cmd, rootOpts, c, s.carts.Degraded())
		},
	}
}

// NewResyncCommand creates the resync command.
func NewResyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "resync",
		Short:         "Replay locally retained changes against the cart service",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			c, err := s.carts.Resync(cmd.Context())
			if err != nil {
				return err
			}
			return printCart(cmd, rootOpts, c, s.carts.Degraded())
		},
	}
}
