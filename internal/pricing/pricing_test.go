package pricing

import (
	"testing"

	"cartsync/internal/model"
)

func TestUnitPrice_Preference(t *testing.T) {
	tests := []struct {
		name    string
		product model.Product
		want    int64
	}{
		{"base only", model.Product{Price: 2499}, 2499},
		{"sale beats base", model.Product{Price: 2499, SalePrice: 1999}, 1999},
		{"override beats sale", model.Product{Price: 2499, SalePrice: 1999, PriceOverride: 1500}, 1500},
		{"override beats base", model.Product{Price: 2499, PriceOverride: 1500}, 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnitPrice(tt.product); got != tt.want {
				t.Errorf("UnitPrice() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestCompute_WorkedExample covers the canonical scenario: one item at 24.99
// with quantity 3, no discount, 8% tax, free shipping over 50.00.
// subtotal 74.97, tax 6.00, shipping 0, total 80.97.
func TestCompute_WorkedExample(t *testing.T) {
	cfg := DefaultConfig()
	items := []model.CartLineItem{
		{ProductID: "prod-1", UnitPrice: 2499, Quantity: 3},
	}

	got := cfg.Compute(items, 0)

	want := model.Totals{Subtotal: 7497, Discount: 0, Tax: 600, Shipping: 0, Total: 8097}
	if got != want {
		t.Errorf("Compute() = %+v, want %+v", got, want)
	}
	if !got.Consistent() {
		t.Error("totals violate derivation invariant")
	}
}

func TestCompute_FreeShippingThreshold(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name         string
		unitPrice    int64
		quantity     int
		discount     int64
		wantShipping int64
	}{
		{"below threshold pays flat fee", 2499, 1, 0, 1500},
		{"exactly at threshold ships free", 5000, 1, 0, 0},
		{"one cent below threshold pays", 4999, 1, 0, 1500},
		{"above threshold ships free", 2499, 3, 0, 0},
		{"discount drops taxable below threshold", 5000, 1, 100, 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := []model.CartLineItem{{ProductID: "p", UnitPrice: tt.unitPrice, Quantity: tt.quantity}}
			got := cfg.Compute(items, tt.discount)
			if got.Shipping != tt.wantShipping {
				t.Errorf("Shipping = %d, want %d", got.Shipping, tt.wantShipping)
			}
			if !got.Consistent() {
				t.Errorf("totals violate derivation invariant: %+v", got)
			}
		})
	}
}

func TestCompute_DiscountReducesTaxable(t *testing.T) {
	cfg := DefaultConfig()
	items := []model.CartLineItem{{ProductID: "p", UnitPrice: 10000, Quantity: 1}}

	// 10% discount known from the server: 10.00 off 100.00.
	got := cfg.Compute(items, 1000)

	if got.Subtotal != 10000 {
		t.Errorf("Subtotal = %d, want 10000", got.Subtotal)
	}
	if got.Discount != 1000 {
		t.Errorf("Discount = %d, want 1000", got.Discount)
	}
	// tax on taxable 90.00 at 8% = 7.20
	if got.Tax != 720 {
		t.Errorf("Tax = %d, want 720", got.Tax)
	}
	if got.Total != 10000-1000+720 {
		t.Errorf("Total = %d, want %d", got.Total, 10000-1000+720)
	}
}

func TestCompute_DiscountClampedToSubtotal(t *testing.T) {
	cfg := DefaultConfig()
	items := []model.CartLineItem{{ProductID: "p", UnitPrice: 500, Quantity: 1}}

	// Stale discount larger than the remaining subtotal must not drive the
	// taxable amount negative.
	got := cfg.Compute(items, 2000)

	if got.Discount != 500 {
		t.Errorf("Discount = %d, want clamp to 500", got.Discount)
	}
	if got.Tax != 0 {
		t.Errorf("Tax = %d, want 0", got.Tax)
	}
	if !got.Consistent() {
		t.Errorf("totals violate derivation invariant: %+v", got)
	}
}

func TestCompute_EmptyCart(t *testing.T) {
	cfg := DefaultConfig()
	got := cfg.Compute(nil, 0)

	want := model.Totals{}
	if got != want {
		t.Errorf("Compute(empty) = %+v, want all-zero totals", got)
	}
}

func TestCompute_MultipleItems(t *testing.T) {
	cfg := DefaultConfig()
	items := []model.CartLineItem{
		{ProductID: "a", UnitPrice: 2499, Quantity: 2},
		{ProductID: "b", UnitPrice: 999, Quantity: 1},
		{ProductID: "a", Variant: "XL", UnitPrice: 2599, Quantity: 1},
	}

	got := cfg.Compute(items, 0)

	wantSubtotal := int64(2499*2 + 999 + 2599)
	if got.Subtotal != wantSubtotal {
		t.Errorf("Subtotal = %d, want %d", got.Subtotal, wantSubtotal)
	}
	if !got.Consistent() {
		t.Errorf("totals violate derivation invariant: %+v", got)
	}
}
