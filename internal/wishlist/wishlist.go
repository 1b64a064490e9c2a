// Package wishlist implements the wishlist engine. Unlike the cart, the
// wishlist is gated to authenticated users and its optimistic mutations roll
// back on remote failure: a heart icon that lies is worse than one that
// flickers, and there is no local fallback surface that depends on retained
// wishlist state.
package wishlist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cartsync/internal/api"
	"cartsync/internal/identity"
	"cartsync/internal/model"
	"cartsync/internal/pricing"
)

// Engine owns the wishlist state for one session. Set semantics: a product
// appears at most once.
type Engine struct {
	mu     sync.Mutex
	remote api.Remote
	ids    *identity.Manager
	log    *slog.Logger

	entries []model.WishlistEntry
	now     func() time.Time
}

// NewEngine creates a wishlist engine. The identity manager gates every
// mutation and the load.
func NewEngine(remote api.Remote, ids *identity.Manager, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{remote: remote, ids: ids, log: log, now: time.Now}
}

// requireAuth rejects guests before any state is touched.
func (e *Engine) requireAuth(action string) error {
	id, err := e.ids.Resolve()
	if err != nil {
		return err
	}
	if id.Kind != identity.KindAuthenticated {
		return model.NewNotAuthenticatedError(action)
	}
	return nil
}

// Load fetches the wishlist from the server. Guests see an empty wishlist,
// never an error: only mutations require sign-in.
func (e *Engine) Load(ctx context.Context) ([]model.WishlistEntry, error) {
	id, err := e.ids.Resolve()
	if err != nil {
		return nil, err
	}
	if id.Kind != identity.KindAuthenticated {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.entries = nil
		return []model.WishlistEntry{}, nil
	}

	entries, err := e.remote.GetWishlist(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = entries
	return e.snapshotLocked(), nil
}

// Entries returns a snapshot of the current wishlist.
func (e *Engine) Entries() []model.WishlistEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Contains reports whether the product is on the wishlist.
func (e *Engine) Contains(productID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.indexLocked(productID) >= 0
}

// Add saves a product snapshot to the wishlist. Adding a product that is
// already saved is a no-op. On remote failure the optimistic entry is rolled
// back and the error surfaces.
func (e *Engine) Add(ctx context.Context, p model.Product) error {
	if err := e.requireAuth("save items to your wishlist"); err != nil {
		return err
	}
	if p.ID == "" {
		return model.NewValidationError("product", "id must not be empty")
	}

	e.mu.Lock()
	if e.indexLocked(p.ID) >= 0 {
		e.mu.Unlock()
		return nil
	}
	e.entries = append(e.entries, model.WishlistEntry{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     pricing.UnitPrice(p),
		Image:     p.Image,
		AddedAt:   e.now(),
	})
	e.mu.Unlock()

	if err := e.remote.AddWishlistItem(ctx, p.ID); err != nil {
		e.log.Warn("wishlist add rolled back", "product", p.ID, "error", err)
		e.mu.Lock()
		e.removeLocked(p.ID)
		e.mu.Unlock()
		return err
	}
	return nil
}

// Remove deletes a product from the wishlist. Removing an absent product is
// a no-op. On remote failure the entry is restored.
func (e *Engine) Remove(ctx context.Context, productID string) error {
	if err := e.requireAuth("edit your wishlist"); err != nil {
		return err
	}

	e.mu.Lock()
	idx := e.indexLocked(productID)
	if idx < 0 {
		e.mu.Unlock()
		return nil
	}
	removed := e.entries[idx]
	e.entries = append(e.entries[:idx], e.entries[idx+1:]...)
	e.mu.Unlock()

	if err := e.remote.RemoveWishlistItem(ctx, productID); err != nil {
		e.log.Warn("wishlist remove rolled back", "product", productID, "error", err)
		e.mu.Lock()
		e.entries = append(e.entries, removed)
		e.mu.Unlock()
		return err
	}
	return nil
}

// Toggle adds the product if absent, removes it if present. The bool reports
// whether the product ended up on the wishlist.
func (e *Engine) Toggle(ctx context.Context, p model.Product) (bool, error) {
	if e.Contains(p.ID) {
		return false, e.Remove(ctx, p.ID)
	}
	return true, e.Add(ctx, p)
}

// Clear empties the wishlist, restoring it on remote failure.
func (e *Engine) Clear(ctx context.Context) error {
	if err := e.requireAuth("edit your wishlist"); err != nil {
		return err
	}

	e.mu.Lock()
	prior := e.entries
	e.entries = nil
	e.mu.Unlock()

	if err := e.remote.ClearWishlist(ctx); err != nil {
		e.log.Warn("wishlist clear rolled back", "error", err)
		e.mu.Lock()
		e.entries = prior
		e.mu.Unlock()
		return err
	}
	return nil
}

func (e *Engine) snapshotLocked() []model.WishlistEntry {
	out := make([]model.WishlistEntry, len(e.entries))
	copy(out, e.entries)
	return out
}

func (e *Engine) indexLocked(productID string) int {
	for i := range e.entries {
		if e.entries[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (e *Engine) removeLocked(productID string) {
	if idx := e.indexLocked(productID); idx >= 0 {
		e.entries = append(e.entries[:idx], e.entries[idx+1:]...)
	}
}
