package cart

import (
	"context"
	"fmt"
	"log/slog"

	"cartsync/internal/api"
	"cartsync/internal/identity"
	"cartsync/internal/model"
	"cartsync/internal/storage"
)

// MergeResolver folds the guest cart into the authenticated user's cart
// exactly once per authenticated identity. The merged-id set is persisted,
// not inferred from transient state, so a crash between sign-in and merge
// does not cause a double merge on restart.
type MergeResolver struct {
	remote api.Remote
	ids    *identity.Manager
	store  storage.Store
	engine *SyncEngine
	log    *slog.Logger
}

// NewMergeResolver wires the resolver to the identity manager and the engine
// whose state it refreshes after a merge.
func NewMergeResolver(remote api.Remote, ids *identity.Manager, store storage.Store, engine *SyncEngine, log *slog.Logger) *MergeResolver {
	if log == nil {
		log = slog.Default()
	}
	return &MergeResolver{remote: remote, ids: ids, store: store, engine: engine, log: log}
}

// OnAuthenticated runs after a guest-to-authenticated transition. It merges
// the guest cart server-side, records the authenticated id as merged, clears
// the guest marker, and reloads the engine with the merged cart.
//
// A failed merge keeps the guest marker so the next transition retries.
// An already-merged id skips the merge but still refreshes engine state.
func (r *MergeResolver) OnAuthenticated(ctx context.Context) error {
	id, err := r.ids.Resolve()
	if err != nil {
		return fmt.Errorf("resolving identity: %w", err)
	}
	if id.Kind != identity.KindAuthenticated {
		return model.NewValidationError("identity", "merge requires an authenticated session")
	}

	merged := storage.LoadStringSet(r.store, storage.KeyMergedIDs)
	if merged[id.ID] {
		r.log.Info("guest cart already merged for this identity", "user", id.ID)
		return r.reload(ctx)
	}

	guestID, ok := r.ids.GuestID()
	if !ok {
		// Nothing to merge; mark done so later sign-ins skip the lookup.
		r.markMerged(merged, id.ID)
		return r.reload(ctx)
	}

	serverCart, err := r.remote.MergeCart(ctx, guestID)
	if err != nil {
		// Guest marker stays; the next authenticated transition retries.
		r.log.Warn("guest cart merge failed, will retry on next sign-in",
			"user", id.ID, "guest", guestID, "error", err)
		return model.NewRemoteError("merge cart", err)
	}

	r.markMerged(merged, id.ID)
	if err := r.ids.ClearGuest(); err != nil {
		r.log.Warn("guest marker not cleared after merge", "error", err)
	}

	r.engine.mu.Lock()
	r.engine.adoptLocked(serverCart)
	r.engine.mu.Unlock()

	r.log.Info("guest cart merged", "user", id.ID, "guest", guestID, "items", len(serverCart.Items))
	return nil
}

func (r *MergeResolver) markMerged(merged map[string]bool, userID string) {
	merged[userID] = true
	if err := storage.SaveStringSet(r.store, storage.KeyMergedIDs, merged); err != nil {
		r.log.Warn("merged-id set not persisted", "error", err)
	}
}

func (r *MergeResolver) reload(ctx context.Context) error {
	if _, err := r.engine.Load(ctx); err != nil {
		return err
	}
	return nil
}
