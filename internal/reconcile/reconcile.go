// Package reconcile computes the delta between the authoritative server cart
// and the locally retained optimistic cart. After a stretch of degraded-mode
// operation the engine replays only the necessary mutations (remove → update
// → add) instead of rebuilding the server cart from scratch.
package reconcile

import "cartsync/internal/model"

// ItemDiff describes the mutations needed to make the server cart match the
// local one. Apply in order: Remove → Update → Add to prevent conflicts.
type ItemDiff struct {
	ToAdd    []model.CartLineItem // in local but not on server
	ToRemove []ItemRemoval        // on server but not local
	ToUpdate []QuantityChange     // on both with different quantities
}

// ItemRemoval identifies a server line item to delete.
type ItemRemoval struct {
	ProductID string // for reference and logging
	ServerID  string // server line-item id needed for the DELETE call
}

// QuantityChange is a quantity update for an existing server line item.
type QuantityChange struct {
	ProductID   string
	ServerID    string
	OldQuantity int
	NewQuantity int
}

// IsEmpty returns true if no line item changes are needed.
func (d *ItemDiff) IsEmpty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0 && len(d.ToUpdate) == 0
}

// DiffItems computes the delta from server (current) to local (desired)
// line items. Matching is by (ProductID, Variant) key, never by line-item
// id: local items carry temporary ids the server has never seen.
func DiffItems(server, local []model.CartLineItem) *ItemDiff {
	diff := &ItemDiff{}

	serverByKey := make(map[string]model.CartLineItem, len(server))
	for _, item := range server {
		serverByKey[item.Key()] = item
	}

	localByKey := make(map[string]model.CartLineItem, len(local))
	for _, item := range local {
		localByKey[item.Key()] = item
	}

	for key, want := range localByKey {
		if have, exists := serverByKey[key]; exists {
			if have.Quantity != want.Quantity {
				diff.ToUpdate = append(diff.ToUpdate, QuantityChange{
					ProductID:   want.ProductID,
					ServerID:    have.ID, // server's id drives the update call
					OldQuantity: have.Quantity,
					NewQuantity: want.Quantity,
				})
			}
		} else {
			diff.ToAdd = append(diff.ToAdd, want)
		}
	}

	for key, have := range serverByKey {
		if _, exists := localByKey[key]; !exists {
			diff.ToRemove = append(diff.ToRemove, ItemRemoval{
				ProductID: have.ProductID,
				ServerID:  have.ID,
			})
		}
	}

	return diff
}

// PromoAction says how to reconcile the active promo code.
type PromoAction int

const (
	PromoKeep   PromoAction = iota // codes already agree
	PromoApply                     // apply the local code (replaces any server code)
	PromoRemove                    // server has a code, local has none
)

// DiffPromo compares the server's active promo code with the local one.
// At most one promo is active per cart, so this is a three-way decision
// rather than a set difference.
func DiffPromo(serverCode, localCode string) PromoAction {
	switch {
	case serverCode == localCode:
		return PromoKeep
	case localCode == "":
		return PromoRemove
	default:
		return PromoApply
	}
}
