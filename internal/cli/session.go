package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cartsync/internal/api"
	"cartsync/internal/cart"
	"cartsync/internal/identity"
	"cartsync/internal/model"
	"cartsync/internal/pricing"
	"cartsync/internal/storage"
	"cartsync/internal/wishlist"
)

// session bundles the engines behind one CLI invocation. Each command builds
// a session, acts, and closes it; durability lives in the SQLite state file.
type session struct {
	store  storage.Store
	ids    *identity.Manager
	carts  *cart.SyncEngine
	wishes *wishlist.Engine
	merges *cart.MergeResolver
}

func openSession(opts *RootOptions) (*session, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("STORE_BASE_URL")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("cart service URL required: set --base-url or STORE_BASE_URL")
	}

	statePath := opts.StatePath
	if statePath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving state dir: %w", err)
		}
		statePath = filepath.Join(dir, "cartsync", "state.db")
	}

	store, err := storage.OpenSQLite(statePath)
	if err != nil {
		return nil, fmt.Errorf("opening state %s: %w", statePath, err)
	}

	logger := cliLogger(opts)
	ids := identity.NewManager(store)
	remote, err := api.New(api.Config{BaseURL: baseURL, Identity: ids})
	if err != nil {
		store.Close()
		return nil, err
	}

	carts := cart.NewSyncEngine(remote, store, pricing.DefaultConfig(), logger)
	if err := carts.Hydrate(); err != nil {
		logger.Warn("local snapshot unusable", "error", err)
	}
	return &session{
		store:  store,
		ids:    ids,
		carts:  carts,
		wishes: wishlist.NewEngine(remote, ids, logger),
		merges: cart.NewMergeResolver(remote, ids, store, carts, logger),
	}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// cliLogger keeps engine logging quiet unless --verbose is set.
func cliLogger(opts *RootOptions) *slog.Logger {
	if opts.Verbose {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// printCart renders the cart in the selected format.
func printCart(cmd *cobra.Command, opts *RootOptions, c *model.Cart, degraded bool) error {
	out := cmd.OutOrStdout()

	if opts.Format == "json" {
		return json.NewEncoder(out).Encode(c)
	}

	if len(c.Items) == 0 {
		fmt.Fprintln(out, "cart is empty")
		return nil
	}
	for _, item := range c.Items {
		variant := ""
		if item.Variant != "" {
			variant = " (" + item.Variant + ")"
		}
		fmt.Fprintf(out, "%-14s %-24s x%-3d %10s\n",
			item.ID, item.Name+variant, item.Quantity,
			model.FormatCents(item.UnitPrice*int64(item.Quantity)))
	}
	fmt.Fprintf(out, "\nsubtotal %10s\n", model.FormatCents(c.Totals.Subtotal))
	if c.Promo != nil {
		fmt.Fprintf(out, "discount %10s (%s)\n", "-"+model.FormatCents(c.Totals.Discount), c.Promo.Code)
	}
	fmt.Fprintf(out, "tax      %10s\n", model.FormatCents(c.Totals.Tax))
	fmt.Fprintf(out, "shipping %10s\n", model.FormatCents(c.Totals.Shipping))
	fmt.Fprintf(out, "total    %10s\n", model.FormatCents(c.Totals.Total))
	if degraded {
		fmt.Fprintln(out, "\n(offline estimate: run 'cartctl resync' once the service is back)")
	}
	return nil
}
