// MCP transport handler using the official MCP Go SDK. Exposes the cart and
// wishlist engines as tools a shopping agent can drive.
package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"cartsync/internal/model"
)

// === Tool Input/Output Types ===

// ItemView is a line item rendered for agent consumption: money as decimal
// strings, never raw cents.
type ItemView struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Variant   string `json:"variant,omitempty"`
}

// CartView is the cart state returned by every cart tool.
type CartView struct {
	Items    []ItemView `json:"items"`
	Subtotal string     `json:"subtotal"`
	Discount string     `json:"discount"`
	Tax      string     `json:"tax"`
	Shipping string     `json:"shipping"`
	Total    string     `json:"total"`
	Promo    string     `json:"promo,omitempty"`
	Degraded bool       `json:"degraded"` // true while local state is unconfirmed
}

// WishlistView is the wishlist state returned by wishlist tools.
type WishlistView struct {
	Items []WishView `json:"items"`
}

// WishView is a single saved product.
type WishView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
}

// ProductInput identifies a catalog product in tool calls.
type ProductInput struct {
	ID    string `json:"id" jsonschema:"product ID,required"`
	Name  string `json:"name" jsonschema:"product display name,required"`
	Price string `json:"price" jsonschema:"unit price as a decimal string like \"24.99\",required"`
	Image string `json:"image,omitempty" jsonschema:"product image URL"`
}

// AddToCartInput is the input schema for the add_to_cart tool.
type AddToCartInput struct {
	Product  ProductInput `json:"product" jsonschema:"product to add,required"`
	Quantity int          `json:"quantity" jsonschema:"units to add, minimum 1,required"`
	Variant  string       `json:"variant,omitempty" jsonschema:"variant such as size or color"`
}

// UpdateQuantityInput is the input schema for the update_quantity tool.
type UpdateQuantityInput struct {
	ItemID   string `json:"item_id" jsonschema:"cart line item ID,required"`
	Quantity int    `json:"quantity" jsonschema:"new quantity; below 1 removes the item,required"`
}

// RemoveFromCartInput is the input schema for the remove_from_cart tool.
type RemoveFromCartInput struct {
	ItemID string `json:"item_id" jsonschema:"cart line item ID,required"`
}

// PromoInput is the input schema for the apply_promo tool.
type PromoInput struct {
	Code string `json:"code" jsonschema:"promo code,required"`
}

// ToggleWishlistInput is the input schema for the toggle_wishlist tool.
type ToggleWishlistInput struct {
	Product ProductInput `json:"product" jsonschema:"product to toggle,required"`
}

// ToggleWishlistOutput reports the post-toggle membership.
type ToggleWishlistOutput struct {
	Added    bool         `json:"added"`
	Wishlist WishlistView `json:"wishlist"`
}

// SignInInput is the input schema for the sign_in tool.
type SignInInput struct {
	UserID string `json:"user_id" jsonschema:"authenticated user ID from the identity provider,required"`
}

type emptyInput struct{}

// NewMCPServer creates an MCP server with cart and wishlist tools registered.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "cartsync",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Commerce session tools: manage the shopping cart, promo codes, " +
				"and wishlist. Cart mutations apply immediately and survive service outages; " +
				"a degraded=true response means totals are local estimates.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart",
		Description: "Get the current cart with items and totals.",
	}, h.mcpGetCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a product to the cart. Adding the same product and variant again increments the quantity.",
	}, h.mcpAddToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_quantity",
		Description: "Set the quantity of a cart line item. A quantity below 1 removes the item.",
	}, h.mcpUpdateQuantity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_from_cart",
		Description: "Remove a line item from the cart.",
	}, h.mcpRemoveFromCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_cart",
		Description: "Empty the cart, including any active promo code.",
	}, h.mcpClearCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "apply_promo",
		Description: "Apply a promo code. The discount is validated server-side; a rejected code leaves the cart unchanged.",
	}, h.mcpApplyPromo)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_promo",
		Description: "Remove the active promo code.",
	}, h.mcpRemovePromo)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resync_cart",
		Description: "Replay locally retained changes against the cart service after an outage.",
	}, h.mcpResyncCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_wishlist",
		Description: "Get the wishlist. Requires a signed-in user.",
	}, h.mcpGetWishlist)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "toggle_wishlist",
		Description: "Add the product to the wishlist if absent, remove it if present. Requires a signed-in user.",
	}, h.mcpToggleWishlist)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sign_in",
		Description: "Record the authenticated user and merge the guest cart into their cart (once per user).",
	}, h.mcpSignIn)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sign_out",
		Description: "Drop the authenticated identity and return to a guest session.",
	}, h.mcpSignOut)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpGetCart(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, *CartView, error) {
	cart, err := h.carts.Load(ctx)
	if err != nil {
		return nil, nil, h.toolError(err)
	}
	return nil, h.cartView(cart), nil
}

func (h *Handler) mcpAddToCart(ctx context.Context, req *mcp.CallToolRequest, input AddToCartInput) (*mcp.CallToolResult, *CartView, error) {
	product, err := parseProduct(input.Product)
	if err != nil {
		return nil, nil, err
	}

	cart, err := h.carts.Add(ctx, product, input.Quantity, input.Variant)
	if err != nil {
		return nil, nil, h.toolError(err)
	}
	return nil, h.cartView(cart), nil
}

func (h *Handler) mcpUpdateQuantity(ctx context.Context, req *mcp.CallToolRequest, input UpdateQuantityInput) (*mcp.CallToolResult, *CartView, error) {
	if input.ItemID == "" {
		return nil, nil, fmt.Errorf("item_id is required")
	}
	cart, err := h.carts.UpdateQuantity(ctx, input.ItemID, input.Quantity)
	if err != nil {
		return nil, nil, h.toolError(err)
	}
	return nil, h.cartView(cart), nil
}

func (h *Handler) mcpRemoveFromCart(ctx context.Context, req *mcp.CallToolRequest, input RemoveFromCartInput) (*mcp.CallToolResult, *CartView, error) {
	if input.ItemID == "" {
		return nil, nil, fmt.Errorf("item_id is required")
	}
	cart, err := h.carts.Remove(ctx, input.ItemID)
	if err != nil {
		return nil, nil, h.toolError(err)
	}
	return nil, h.cartView(cart), nil
}

func (h *Handler) mcpClearCart(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, *CartView, error) {
	cart, err := h.carts.Clear(ctx)
	if err != nil {
		return nil, nil, h.toolError(err)
	}
	return nil, h.cartView(cart), nil
}

func (h *Handler) mcpApplyPromo(ctx context.Context, req *mcp.CallToolRequest, input PromoInput) (*mcp.CallToolResult, *CartView, error) {
	cart, err := h.carts.ApplyPromo(ctx, input.Code)
	if err != nil {
		return nil, nil, h.toolError(err)
	}
	return nil, h.cartView(cart), nil
}

func (h *Handler) mcpRemovePromo(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, *CartView, error) {
	cart, err := h.carts.RemovePromo(ctx)
	if err != nil {
		return nil, nil, h.toolError(err)
	}
	return nil, h.cartView(cart), nil
}

func (h *Handler) mcpResyncCart(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, *CartView, error) {
	cart, err := h.carts.Resync(ctx)
	if err != nil {
		return nil, nil, h.toolError(err)
	}
	return nil, h.cartView(cart), nil
}

func (h *Handler) mcpGetWishlist(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, *WishlistView, error) {
	entries, err := h.wishes.Load(ctx)
	if err != nil {
		return nil, nil, h.toolError(err)
	}
	return nil, wishlistView(entries), nil
}

func (h *Handler) mcpToggleWishlist(ctx context.Context, req *mcp.CallToolRequest, input ToggleWishlistInput) (*mcp.CallToolResult, *ToggleWishlistOutput, error) {
	product, err := parseProduct(input.Product)
	if err != nil {
		return nil, nil, err
	}

	added, err := h.wishes.Toggle(ctx, product)
	if err != nil {
		return nil, nil, h.toolError(err)
	}
	return nil, &ToggleWishlistOutput{Added: added, Wishlist: *wishlistView(h.wishes.Entries())}, nil
}

func (h *Handler) mcpSignIn(ctx context.Context, req *mcp.CallToolRequest, input SignInInput) (*mcp.CallToolResult, *CartView, error) {
	if input.UserID == "" {
		return nil, nil, fmt.Errorf("user_id is required")
	}
	if err := h.ids.SetAuthenticated(input.UserID); err != nil {
		return nil, nil, h.toolError(err)
	}
	if err := h.merges.OnAuthenticated(ctx); err != nil {
		// The sign-in itself succeeded; the merge retries next time.
		h.logger.Warn("guest cart merge deferred", "error", err)
	}
	return nil, h.cartView(h.carts.Cart()), nil
}

func (h *Handler) mcpSignOut(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, *CartView, error) {
	if err := h.ids.SignOut(); err != nil {
		return nil, nil, h.toolError(err)
	}
	cart, err := h.carts.Load(ctx)
	if err != nil {
		return nil, nil, h.toolError(err)
	}
	return nil, h.cartView(cart), nil
}

// === View Builders ===

func (h *Handler) cartView(c *model.Cart) *CartView {
	view := &CartView{
		Items:    make([]ItemView, 0, len(c.Items)),
		Subtotal: model.FormatCents(c.Totals.Subtotal),
		Discount: model.FormatCents(c.Totals.Discount),
		Tax:      model.FormatCents(c.Totals.Tax),
		Shipping: model.FormatCents(c.Totals.Shipping),
		Total:    model.FormatCents(c.Totals.Total),
		Degraded: h.carts.Degraded(),
	}
	if c.Promo != nil {
		view.Promo = c.Promo.Code
	}
	for _, item := range c.Items {
		view.Items = append(view.Items, ItemView{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: model.FormatCents(item.UnitPrice),
			Quantity:  item.Quantity,
			Variant:   item.Variant,
		})
	}
	return view
}

func wishlistView(entries []model.WishlistEntry) *WishlistView {
	view := &WishlistView{Items: make([]WishView, 0, len(entries))}
	for _, e := range entries {
		view.Items = append(view.Items, WishView{
			ProductID: e.ProductID,
			Name:      e.Name,
			Price:     model.FormatCents(e.Price),
		})
	}
	return view
}

func parseProduct(in ProductInput) (model.Product, error) {
	if in.ID == "" {
		return model.Product{}, fmt.Errorf("product.id is required")
	}
	price := model.ParseCents(in.Price)
	if price <= 0 {
		return model.Product{}, fmt.Errorf("product.price %q is not a positive amount", in.Price)
	}
	return model.Product{ID: in.ID, Name: in.Name, Price: price, Image: in.Image}, nil
}
