// Package api is the HTTP client for the remote cart/wishlist service. It
// owns the wire format (decimal-string amounts, camelCase fields, the
// {success, data, message} envelope) and converts responses into domain
// types before they reach the engines.
package api

import (
	"context"
	"time"

	"cartsync/internal/model"
)

// Remote abstracts the cart service operations the engines dispatch.
// The HTTP Client is the production implementation; tests substitute a mock.
//
// Every cart-returning call yields the authoritative cart state after the
// operation, which the sync engine uses for reconciliation.
type Remote interface {
	GetCart(ctx context.Context) (*model.Cart, error)
	AddItem(ctx context.Context, req AddItemRequest) (*model.Cart, error)
	UpdateItem(ctx context.Context, itemID string, quantity int) (*model.Cart, error)
	RemoveItem(ctx context.Context, itemID string) (*model.Cart, error)
	ClearCart(ctx context.Context) error
	ApplyPromo(ctx context.Context, code string) (*model.Cart, error)
	RemovePromo(ctx context.Context) (*model.Cart, error)
	MergeCart(ctx context.Context, guestSessionID string) (*model.Cart, error)

	GetWishlist(ctx context.Context) ([]model.WishlistEntry, error)
	AddWishlistItem(ctx context.Context, productID string) error
	RemoveWishlistItem(ctx context.Context, productID string) error
	ClearWishlist(ctx context.Context) error
}

// AddItemRequest is the body for POST /cart.
type AddItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Variant   string `json:"variant,omitempty"`
}

// === Wire Types ===
// The service sends amounts as decimal strings ("74.97") and camelCase keys.

// envelope is the response wrapper on every endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// cartEnvelope is the envelope with a cart payload.
type cartEnvelope struct {
	envelope
	Data wireCart `json:"data"`
}

// wishlistEnvelope is the envelope with a wishlist payload.
type wishlistEnvelope struct {
	envelope
	Data wireWishlist `json:"data"`
}

type wireCart struct {
	Items     []wireCartItem `json:"items"`
	Subtotal  string         `json:"subtotal"`
	Discount  string         `json:"discount"`
	Tax       string         `json:"tax"`
	Shipping  string         `json:"shipping"`
	Total     string         `json:"total"`
	PromoCode *wirePromo     `json:"promoCode,omitempty"`
}

type wireCartItem struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"` // "24.99"
	Quantity  int    `json:"quantity"`
	Variant   string `json:"variant,omitempty"`
	Image     string `json:"image,omitempty"`
}

type wirePromo struct {
	Code            string  `json:"code"`
	DiscountPercent float64 `json:"discountPercent"`
}

type wireWishlist struct {
	Items []wireWishlistEntry `json:"items"`
}

type wireWishlistEntry struct {
	ProductID string    `json:"productId"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Image     string    `json:"image,omitempty"`
	AddedAt   time.Time `json:"addedAt"`
}

// === Wire → Domain Transforms ===

func cartFromWire(w wireCart) *model.Cart {
	cart := &model.Cart{
		Items: make([]model.CartLineItem, len(w.Items)),
		Totals: model.Totals{
			Subtotal: model.ParseCents(w.Subtotal),
			Discount: model.ParseCents(w.Discount),
			Tax:      model.ParseCents(w.Tax),
			Shipping: model.ParseCents(w.Shipping),
			Total:    model.ParseCents(w.Total),
		},
	}
	for i, item := range w.Items {
		cart.Items[i] = model.CartLineItem{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: model.ParseCents(item.UnitPrice),
			Quantity:  item.Quantity,
			Variant:   item.Variant,
			Image:     item.Image,
		}
	}
	if w.PromoCode != nil && w.PromoCode.Code != "" {
		cart.Promo = &model.PromoCode{
			Code:            w.PromoCode.Code,
			DiscountPercent: w.PromoCode.DiscountPercent,
		}
	}
	return cart
}

func wishlistFromWire(w wireWishlist) []model.WishlistEntry {
	entries := make([]model.WishlistEntry, len(w.Items))
	for i, e := range w.Items {
		entries[i] = model.WishlistEntry{
			ProductID: e.ProductID,
			Name:      e.Name,
			Price:     model.ParseCents(e.Price),
			Image:     e.Image,
			AddedAt:   e.AddedAt,
		}
	}
	return entries
}
