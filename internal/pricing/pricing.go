// Package pricing derives cart totals locally while the authoritative server
// figures are unavailable. It is a pure fallback estimate: whenever a server
// response arrives, its totals fully replace anything computed here.
//
// All call sites share one Config so the flat shipping fee and free-shipping
// threshold cannot drift between estimation paths.
package pricing

import (
	"cartsync/internal/model"
)

// Config holds the constants for local totals estimation. The discount
// amount is never recomputed from promo business rules client-side; it is
// whatever the server last reported.
type Config struct {
	TaxRate               float64 // e.g. 0.08
	FreeShippingThreshold int64   // cents; taxable >= threshold ships free
	FlatShippingFee       int64   // cents, charged below the threshold
}

// DefaultConfig matches the storefront's advertised rates.
func DefaultConfig() Config {
	return Config{
		TaxRate:               0.08,
		FreeShippingThreshold: 5000,
		FlatShippingFee:       1500,
	}
}

// UnitPrice resolves the effective unit price for a product:
// explicit override first, then sale price, then base price.
func UnitPrice(p model.Product) int64 {
	if p.PriceOverride > 0 {
		return p.PriceOverride
	}
	if p.SalePrice > 0 {
		return p.SalePrice
	}
	return p.Price
}

// Compute derives totals from line items and a previously-known discount
// amount in cents.
//
//	subtotal = Σ unitPrice * quantity
//	taxable  = subtotal - discount
//	tax      = round(taxable * TaxRate)
//	shipping = 0 if taxable >= FreeShippingThreshold, else FlatShippingFee
//	total    = subtotal - discount + tax + shipping
func (c Config) Compute(items []model.CartLineItem, discount int64) model.Totals {
	var subtotal int64
	for _, item := range items {
		subtotal += item.UnitPrice * int64(item.Quantity)
	}

	if discount > subtotal {
		discount = subtotal
	}
	taxable := subtotal - discount

	tax := model.RoundCents(taxable, c.TaxRate)

	var shipping int64
	if len(items) > 0 && taxable < c.FreeShippingThreshold {
		shipping = c.FlatShippingFee
	}

	return model.Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal - discount + tax + shipping,
	}
}
