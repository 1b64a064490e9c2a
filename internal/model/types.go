// Package model defines the domain types shared across the sync engine:
// cart line items, totals, promo codes, wishlist entries, and the error
// taxonomy. All monetary amounts are int64 minor units (cents).
package model

import "time"

// Product carries the catalog fields the engine needs to create a line item
// or wishlist entry. The catalog itself is an external collaborator; the
// engine only snapshots what it is given.
type Product struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`                    // base price, cents
	SalePrice     int64  `json:"sale_price,omitempty"`     // 0 = no sale
	PriceOverride int64  `json:"price_override,omitempty"` // 0 = no override
	Image         string `json:"image,omitempty"`
}

// CartLineItem is a single row in the cart.
//
// Invariant: at most one line item exists per (ProductID, Variant) pair.
// Adding an already-present combination increments Quantity instead of
// creating a duplicate row.
type CartLineItem struct {
	ID        string `json:"id"` // server id, or local temp id before reconciliation
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"` // cents, resolved at add time
	Quantity  int    `json:"quantity"`   // always >= 1
	Variant   string `json:"variant,omitempty"`
	Image     string `json:"image,omitempty"`
}

// Key returns the uniqueness key for the (ProductID, Variant) pair.
func (li CartLineItem) Key() string {
	if li.Variant == "" {
		return li.ProductID
	}
	return li.ProductID + ":" + li.Variant
}

// PromoCode is a server-validated discount token. At most one promo is
// active per cart; applying a new code replaces any prior one.
type PromoCode struct {
	Code            string  `json:"code"`
	DiscountPercent float64 `json:"discount_percent"`
}

// Totals holds the derived cart amounts in cents. Totals are never mutated
// independently: they are either the server's authoritative figures or a
// local pricing fallback, and always satisfy
// Total == Subtotal - Discount + Tax + Shipping.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Tax      int64 `json:"tax"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

// Consistent reports whether the totals satisfy the derivation invariant.
func (t Totals) Consistent() bool {
	return t.Total == t.Subtotal-t.Discount+t.Tax+t.Shipping
}

// Cart is the authoritative cart payload as the engine tracks it: line items
// plus the last-known totals and active promo.
type Cart struct {
	Items  []CartLineItem `json:"items"`
	Totals Totals         `json:"totals"`
	Promo  *PromoCode     `json:"promo,omitempty"`
}

// ItemByKey returns the line item matching the (productID, variant) pair,
// or nil if no such item exists.
func (c *Cart) ItemByKey(productID, variant string) *CartLineItem {
	key := CartLineItem{ProductID: productID, Variant: variant}.Key()
	for i := range c.Items {
		if c.Items[i].Key() == key {
			return &c.Items[i]
		}
	}
	return nil
}

// ItemByID returns the line item with the given id, or nil.
func (c *Cart) ItemByID(id string) *CartLineItem {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the cart. Engine operations snapshot state
// before optimistic mutations so a caller-visible copy never aliases
// engine-internal slices.
func (c *Cart) Clone() *Cart {
	out := &Cart{Totals: c.Totals}
	out.Items = make([]CartLineItem, len(c.Items))
	copy(out.Items, c.Items)
	if c.Promo != nil {
		p := *c.Promo
		out.Promo = &p
	}
	return out
}

// WishlistEntry is a product snapshot saved to the wishlist. Set semantics:
// a ProductID appears at most once.
type WishlistEntry struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"` // cents, snapshot at add time
	Image     string    `json:"image,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}
