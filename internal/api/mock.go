package api

import (
	"context"
	"errors"

	"cartsync/internal/model"
)

// Mock implements Remote for testing.
// Each method can be configured via function fields; unconfigured cart
// methods fail as if the service were unreachable, which is the degraded
// mode the engines must survive.
type Mock struct {
	GetCartFunc     func(ctx context.Context) (*model.Cart, error)
	AddItemFunc     func(ctx context.Context, req AddItemRequest) (*model.Cart, error)
	UpdateItemFunc  func(ctx context.Context, itemID string, quantity int) (*model.Cart, error)
	RemoveItemFunc  func(ctx context.Context, itemID string) (*model.Cart, error)
	ClearCartFunc   func(ctx context.Context) error
	ApplyPromoFunc  func(ctx context.Context, code string) (*model.Cart, error)
	RemovePromoFunc func(ctx context.Context) (*model.Cart, error)
	MergeCartFunc   func(ctx context.Context, guestSessionID string) (*model.Cart, error)

	GetWishlistFunc        func(ctx context.Context) ([]model.WishlistEntry, error)
	AddWishlistItemFunc    func(ctx context.Context, productID string) error
	RemoveWishlistItemFunc func(ctx context.Context, productID string) error
	ClearWishlistFunc      func(ctx context.Context) error
}

func unreachable(op string) error {
	return model.NewRemoteError(op, errors.New("mock: no handler configured"))
}

func (m *Mock) GetCart(ctx context.Context) (*model.Cart, error) {
	if m.GetCartFunc != nil {
		return m.GetCartFunc(ctx)
	}
	return nil, unreachable("get cart")
}

func (m *Mock) AddItem(ctx context.Context, req AddItemRequest) (*model.Cart, error) {
	if m.AddItemFunc != nil {
		return m.AddItemFunc(ctx, req)
	}
	return nil, unreachable("add item")
}

func (m *Mock) UpdateItem(ctx context.Context, itemID string, quantity int) (*model.Cart, error) {
	if m.UpdateItemFunc != nil {
		return m.UpdateItemFunc(ctx, itemID, quantity)
	}
	return nil, unreachable("update item")
}

func (m *Mock) RemoveItem(ctx context.Context, itemID string) (*model.Cart, error) {
	if m.RemoveItemFunc != nil {
		return m.RemoveItemFunc(ctx, itemID)
	}
	return nil, unreachable("remove item")
}

func (m *Mock) ClearCart(ctx context.Context) error {
	if m.ClearCartFunc != nil {
		return m.ClearCartFunc(ctx)
	}
	return unreachable("clear cart")
}

func (m *Mock) ApplyPromo(ctx context.Context, code string) (*model.Cart, error) {
	if m.ApplyPromoFunc != nil {
		return m.ApplyPromoFunc(ctx, code)
	}
	return nil, unreachable("apply promo")
}

func (m *Mock) RemovePromo(ctx context.Context) (*model.Cart, error) {
	if m.RemovePromoFunc != nil {
		return m.RemovePromoFunc(ctx)
	}
	return nil, unreachable("remove promo")
}

func (m *Mock) MergeCart(ctx context.Context, guestSessionID string) (*model.Cart, error) {
	if m.MergeCartFunc != nil {
		return m.MergeCartFunc(ctx, guestSessionID)
	}
	return nil, unreachable("merge cart")
}

func (m *Mock) GetWishlist(ctx context.Context) ([]model.WishlistEntry, error) {
	if m.GetWishlistFunc != nil {
		return m.GetWishlistFunc(ctx)
	}
	return nil, unreachable("get wishlist")
}

func (m *Mock) AddWishlistItem(ctx context.Context, productID string) error {
	if m.AddWishlistItemFunc != nil {
		return m.AddWishlistItemFunc(ctx, productID)
	}
	return unreachable("add wishlist item")
}

func (m *Mock) RemoveWishlistItem(ctx context.Context, productID string) error {
	if m.RemoveWishlistItemFunc != nil {
		return m.RemoveWishlistItemFunc(ctx, productID)
	}
	return unreachable("remove wishlist item")
}

func (m *Mock) ClearWishlist(ctx context.Context) error {
	if m.ClearWishlistFunc != nil {
		return m.ClearWishlistFunc(ctx)
	}
	return unreachable("clear wishlist")
}

// Verify Mock implements Remote interface at compile time.
var _ Remote = (*Mock)(nil)
