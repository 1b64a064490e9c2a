// Package cart implements the sync engine for the shopping cart: optimistic
// local mutation, remote dispatch, reconciliation against the authoritative
// server cart, and degraded-mode fallback when the cart service is
// unreachable.
//
// Cart operations never roll back on remote failure. The optimistic state is
// retained, totals are estimated locally, and the divergence is replayed on
// the next Resync. Promo operations are the exception: discounts are server
// business rules, so promo state only ever changes on a server response.
package cart

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"cartsync/internal/api"
	"cartsync/internal/model"
	"cartsync/internal/pricing"
	"cartsync/internal/reconcile"
	"cartsync/internal/storage"
)

// localIDPrefix marks line-item ids minted before the server has seen the
// item. Temp ids never go out in URLs; reconciliation swaps them for server
// ids.
const localIDPrefix = "local_"

// SyncEngine owns the cart state for one session.
//
// Every mutation takes a sequence number under the engine lock. A server
// response is applied only when its sequence is still the newest, so a slow
// response from an earlier mutation can never clobber a later optimistic
// state.
type SyncEngine struct {
	mu      sync.Mutex
	remote  api.Remote
	store   storage.Store
	pricing pricing.Config
	log     *slog.Logger

	cart     *model.Cart
	seq      uint64
	degraded bool

	newID func() string
}

// NewSyncEngine creates an engine over the given remote and fallback store.
func NewSyncEngine(remote api.Remote, store storage.Store, cfg pricing.Config, log *slog.Logger) *SyncEngine {
	if log == nil {
		log = slog.Default()
	}
	return &SyncEngine{
		remote:  remote,
		store:   store,
		pricing: cfg,
		log:     log,
		cart:    &model.Cart{},
		newID:   func() string { return localIDPrefix + uuid.NewString() },
	}
}

// Load fetches the authoritative cart. When the service is unreachable the
// engine hydrates from the local snapshot with estimated totals and enters
// degraded mode; Load itself does not fail for that.
func (e *SyncEngine) Load(ctx context.Context) (*model.Cart, error) {
	server, err := e.remote.GetCart(ctx)
	if err == nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.cart = server.Clone()
		e.degraded = false
		e.persistLocked()
		return e.cart.Clone(), nil
	}

	e.log.Warn("cart fetch failed, hydrating from local snapshot", "error", err)

	items, loadErr := storage.LoadCartItems(e.store)
	if loadErr != nil {
		e.log.Warn("local snapshot unusable", "error", loadErr)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cart = &model.Cart{Items: items}
	e.recomputeLocked()
	e.degraded = true
	return e.cart.Clone(), nil
}

// Hydrate restores the cart from the local snapshot without touching the
// remote. Short-lived callers use it so retained offline state carries
// across process restarts; the engine is degraded until a server response
// confirms the state.
func (e *SyncEngine) Hydrate() error {
	items, err := storage.LoadCartItems(e.store)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(items) == 0 {
		return nil
	}
	e.cart = &model.Cart{Items: items}
	e.recomputeLocked()
	e.degraded = true
	return nil
}

// HasLocalChanges reports whether any line item still carries a temporary id,
// meaning the server has never confirmed it.
func (e *SyncEngine) HasLocalChanges() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, item := range e.cart.Items {
		if isLocalID(item.ID) {
			return true
		}
	}
	return false
}

// Cart returns a snapshot of the current cart state.
func (e *SyncEngine) Cart() *model.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart.Clone()
}

// Degraded reports whether the engine is operating on locally retained state
// that has not been confirmed by the server.
func (e *SyncEngine) Degraded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.degraded
}

// Add puts quantity units of the product into the cart. An existing
// (product, variant) line increments; otherwise a new line is appended with a
// temporary id. The optimistic state is visible immediately and survives
// remote failure.
func (e *SyncEngine) Add(ctx context.Context, p model.Product, quantity int, variant string) (*model.Cart, error) {
	if p.ID == "" {
		return nil, model.NewValidationError("product", "id must not be empty")
	}
	if quantity < 1 {
		return nil, model.NewValidationError("quantity", "must be at least 1")
	}

	e.mu.Lock()
	if existing := e.cart.ItemByKey(p.ID, variant); existing != nil {
		existing.Quantity += quantity
	} else {
		e.cart.Items = append(e.cart.Items, model.CartLineItem{
			ID:        e.newID(),
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: pricing.UnitPrice(p),
			Quantity:  quantity,
			Variant:   variant,
			Image:     p.Image,
		})
	}
	e.recomputeLocked()
	e.persistLocked()
	seq := e.bumpLocked()
	e.mu.Unlock()

	server, err := e.remote.AddItem(ctx, api.AddItemRequest{ProductID: p.ID, Quantity: quantity, Variant: variant})
	return e.settle(seq, server, err, "add item")
}

// UpdateQuantity sets the quantity of an existing line item. Quantities below
// 1 remove the item; an unknown id is a no-op.
func (e *SyncEngine) UpdateQuantity(ctx context.Context, itemID string, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		return e.Remove(ctx, itemID)
	}

	e.mu.Lock()
	item := e.cart.ItemByID(itemID)
	if item == nil {
		snapshot := e.cart.Clone()
		e.mu.Unlock()
		return snapshot, nil
	}
	item.Quantity = quantity
	e.recomputeLocked()
	e.persistLocked()
	seq := e.bumpLocked()
	e.mu.Unlock()

	if isLocalID(itemID) {
		// The server has never seen this line; Resync replays it.
		return e.retainLocal(seq, "update quantity", nil)
	}

	server, err := e.remote.UpdateItem(ctx, itemID, quantity)
	if errors.Is(err, model.ErrNotFound) {
		// The line vanished server-side; the next Resync reconciles it.
		return e.Cart(), nil
	}
	return e.settle(seq, server, err, "update quantity")
}

// Remove deletes a line item. An unknown id is a no-op.
func (e *SyncEngine) Remove(ctx context.Context, itemID string) (*model.Cart, error) {
	e.mu.Lock()
	found := false
	items := e.cart.Items[:0]
	for _, item := range e.cart.Items {
		if item.ID == itemID {
			found = true
			continue
		}
		items = append(items, item)
	}
	if !found {
		snapshot := e.cart.Clone()
		e.mu.Unlock()
		return snapshot, nil
	}
	e.cart.Items = items
	e.recomputeLocked()
	e.persistLocked()
	seq := e.bumpLocked()
	e.mu.Unlock()

	if isLocalID(itemID) {
		return e.retainLocal(seq, "remove item", nil)
	}

	server, err := e.remote.RemoveItem(ctx, itemID)
	if errors.Is(err, model.ErrNotFound) {
		// Already absent server-side; both sides agree the item is gone.
		return e.Cart(), nil
	}
	return e.settle(seq, server, err, "remove item")
}

// Clear empties the cart, promo included. The remote clear is best effort.
func (e *SyncEngine) Clear(ctx context.Context) (*model.Cart, error) {
	e.mu.Lock()
	e.cart = &model.Cart{}
	e.persistLocked()
	seq := e.bumpLocked()
	e.mu.Unlock()

	if err := e.remote.ClearCart(ctx); err != nil {
		return e.retainLocal(seq, "clear cart", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq == e.seq {
		e.degraded = false
	}
	return e.cart.Clone(), nil
}

// ApplyPromo applies a promo code. Unlike item mutations there is no
// optimistic step: the discount amount is a server decision. A rejected code
// leaves the cart untouched and returns a structured promo error.
func (e *SyncEngine) ApplyPromo(ctx context.Context, code string) (*model.Cart, error) {
	if strings.TrimSpace(code) == "" {
		return nil, model.NewValidationError("code", "must not be empty")
	}

	server, err := e.remote.ApplyPromo(ctx, code)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.adoptLocked(server)
	return e.cart.Clone(), nil
}

// RemovePromo removes the active promo code. Authoritative only, like
// ApplyPromo.
func (e *SyncEngine) RemovePromo(ctx context.Context) (*model.Cart, error) {
	server, err := e.remote.RemovePromo(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.adoptLocked(server)
	return e.cart.Clone(), nil
}

// Resync replays locally retained divergence against the server and leaves
// degraded mode. The server cart is diffed against the local one and only the
// necessary mutations go out, remove before update before add. On any remote
// failure the engine stays degraded and keeps its local state.
func (e *SyncEngine) Resync(ctx context.Context) (*model.Cart, error) {
	server, err := e.remote.GetCart(ctx)
	if err != nil {
		return nil, model.NewRemoteError("resync", err)
	}

	e.mu.Lock()
	local := e.cart.Clone()
	e.mu.Unlock()

	diff := reconcile.DiffItems(server.Items, local.Items)
	for _, rm := range diff.ToRemove {
		if _, err := e.remote.RemoveItem(ctx, rm.ServerID); err != nil {
			return nil, model.NewRemoteError("resync remove", err)
		}
	}
	for _, up := range diff.ToUpdate {
		if _, err := e.remote.UpdateItem(ctx, up.ServerID, up.NewQuantity); err != nil {
			return nil, model.NewRemoteError("resync update", err)
		}
	}
	for _, add := range diff.ToAdd {
		req := api.AddItemRequest{ProductID: add.ProductID, Quantity: add.Quantity, Variant: add.Variant}
		if _, err := e.remote.AddItem(ctx, req); err != nil {
			return nil, model.NewRemoteError("resync add", err)
		}
	}

	serverCode := ""
	if server.Promo != nil {
		serverCode = server.Promo.Code
	}
	localCode := ""
	if local.Promo != nil {
		localCode = local.Promo.Code
	}
	switch reconcile.DiffPromo(serverCode, localCode) {
	case reconcile.PromoApply:
		if _, err := e.remote.ApplyPromo(ctx, localCode); err != nil {
			// A code that expired while offline is not worth failing the
			// whole resync over.
			e.log.Warn("promo not restored during resync", "code", localCode, "error", err)
		}
	case reconcile.PromoRemove:
		if _, err := e.remote.RemovePromo(ctx); err != nil {
			return nil, model.NewRemoteError("resync promo", err)
		}
	}

	final, err := e.remote.GetCart(ctx)
	if err != nil {
		return nil, model.NewRemoteError("resync", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.adoptLocked(final)
	e.log.Info("resync complete",
		"removed", len(diff.ToRemove), "updated", len(diff.ToUpdate), "added", len(diff.ToAdd))
	return e.cart.Clone(), nil
}

// CompleteCheckout resets the session after a successful checkout: local
// state and snapshot are dropped immediately, the remote clear is best
// effort because the order pipeline empties the server cart anyway.
func (e *SyncEngine) CompleteCheckout(ctx context.Context) error {
	e.mu.Lock()
	e.cart = &model.Cart{}
	e.persistLocked()
	e.bumpLocked()
	e.degraded = false
	e.mu.Unlock()

	if err := e.remote.ClearCart(ctx); err != nil {
		e.log.Warn("post-checkout remote clear failed", "error", err)
	}
	return nil
}

// === Internal ===

// settle applies a remote mutation result: adopt the server cart on success,
// retain the optimistic state on failure.
func (e *SyncEngine) settle(seq uint64, server *model.Cart, err error, op string) (*model.Cart, error) {
	if err != nil {
		return e.retainLocal(seq, op, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.seq {
		// A newer mutation went out after this one; its response supersedes
		// ours.
		e.log.Debug("stale reconciliation discarded", "op", op, "seq", seq, "latest", e.seq)
		return e.cart.Clone(), nil
	}
	e.adoptLocked(server)
	return e.cart.Clone(), nil
}

// retainLocal records a failed or skipped dispatch: the optimistic state
// stays, the engine is degraded, and the caller gets the retained snapshot
// rather than an error.
func (e *SyncEngine) retainLocal(seq uint64, op string, err error) (*model.Cart, error) {
	if err != nil {
		e.log.Warn("remote dispatch failed, local state retained", "op", op, "error", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq == e.seq {
		e.degraded = true
	}
	return e.cart.Clone(), nil
}

// adoptLocked replaces engine state with the authoritative server cart and
// invalidates any still-in-flight dispatches. Caller holds the lock.
func (e *SyncEngine) adoptLocked(server *model.Cart) {
	e.cart = server.Clone()
	e.degraded = false
	e.bumpLocked()
	e.persistLocked()
}

// recomputeLocked refreshes totals from the local pricing fallback, keeping
// the last server-reported discount while a promo is active.
func (e *SyncEngine) recomputeLocked() {
	var discount int64
	if e.cart.Promo != nil {
		discount = e.cart.Totals.Discount
	}
	e.cart.Totals = e.pricing.Compute(e.cart.Items, discount)
}

// persistLocked writes the line-item snapshot. Persistence failures degrade
// durability, not correctness, so they are logged and swallowed.
func (e *SyncEngine) persistLocked() {
	if err := storage.SaveCartItems(e.store, e.cart.Items); err != nil {
		e.log.Warn("cart snapshot not persisted", "error", err)
	}
}

func (e *SyncEngine) bumpLocked() uint64 {
	e.seq++
	return e.seq
}

func isLocalID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}
