// Package storage is the durable local fallback store for the sync engine.
// It is a small key-value layer scoped to the device: it keeps the guest
// session marker, the authenticated identity marker, and a snapshot of cart
// line items for hydration when the cart service is unreachable.
//
// The store may be stale relative to the server; callers treat its contents
// as a fallback, never as authoritative.
package storage

import (
	"encoding/json"
	"fmt"

	"cartsync/internal/model"
)

// Well-known keys. Totals are deliberately never persisted: they are always
// re-fetched or recomputed from items.
const (
	KeyGuestSession = "guest_session_id"
	KeyAuthUser     = "auth_user_id"
	KeyCartItems    = "cart_items"
	KeyMergedIDs    = "merged_identity_ids"
)

// Store is a durable key-value store. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the value for key. The second return is false when the
	// key is absent.
	Get(key string) (string, bool, error)

	// Put writes the value for key, replacing any existing value.
	Put(key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	Close() error
}

// SaveCartItems writes the line-item snapshot. An empty slice clears the
// snapshot rather than persisting an empty list.
func SaveCartItems(s Store, items []model.CartLineItem) error {
	if len(items) == 0 {
		return s.Delete(KeyCartItems)
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding cart snapshot: %w", err)
	}
	return s.Put(KeyCartItems, string(data))
}

// LoadCartItems reads the line-item snapshot. Returns nil with no error when
// no snapshot exists; a corrupt snapshot is dropped and reported.
func LoadCartItems(s Store) ([]model.CartLineItem, error) {
	raw, ok, err := s.Get(KeyCartItems)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var items []model.CartLineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		// A snapshot we cannot parse is worse than no snapshot.
		s.Delete(KeyCartItems)
		return nil, fmt.Errorf("corrupt cart snapshot dropped: %w", err)
	}
	return items, nil
}

// SaveStringSet persists a set of strings under key as JSON.
func SaveStringSet(s Store, key string, set map[string]bool) error {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.Put(key, string(data))
}

// LoadStringSet reads a set of strings stored under key. An absent or
// unparsable value yields an empty set.
func LoadStringSet(s Store, key string) map[string]bool {
	set := make(map[string]bool)
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return set
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return set
	}
	for _, id := range ids {
		set[id] = true
	}
	return set
}
