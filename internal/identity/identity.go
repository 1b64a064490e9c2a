// Package identity resolves who the current shopper is: an anonymous guest
// tracked by a locally generated session id, or an authenticated user whose
// id comes from the external identity provider.
//
// Exactly one kind is active at a time. The guest id is created lazily on
// first resolution and persisted so repeated guest visits reuse the same
// server-side guest cart.
package identity

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cartsync/internal/storage"
)

// Kind distinguishes guest and authenticated identities.
type Kind string

const (
	KindGuest         Kind = "guest"
	KindAuthenticated Kind = "authenticated"
)

// Outbound identity headers. Mutually exclusive per request.
const (
	HeaderAuth  = "X-Auth-Id"
	HeaderGuest = "X-Guest-Session"
)

// Identity is the resolved actor for the current session.
type Identity struct {
	Kind Kind
	ID   string
}

// Manager owns identity resolution and persistence. It replaces the implicit
// global identity markers of browser storage with an explicit injected
// dependency: construct one Manager and hand it to the engines that need it.
//
// Safe for concurrent use; concurrent Resolve calls never mint two guest ids.
type Manager struct {
	mu    sync.Mutex
	store storage.Store

	now    func() time.Time
	suffix func() string
}

// NewManager creates a Manager backed by the given store.
func NewManager(store storage.Store) *Manager {
	return &Manager{
		store:  store,
		now:    time.Now,
		suffix: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:10] },
	}
}

// Resolve returns the active identity. An authenticated marker always wins;
// otherwise the persisted guest id is reused, and if none exists a new one
// is generated and persisted before returning.
func (m *Manager) Resolve() (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveLocked()
}

func (m *Manager) resolveLocked() (Identity, error) {
	if authID, ok, err := m.store.Get(storage.KeyAuthUser); err != nil {
		return Identity{}, fmt.Errorf("reading auth marker: %w", err)
	} else if ok && authID != "" {
		return Identity{Kind: KindAuthenticated, ID: authID}, nil
	}

	if guestID, ok, err := m.store.Get(storage.KeyGuestSession); err != nil {
		return Identity{}, fmt.Errorf("reading guest marker: %w", err)
	} else if ok && guestID != "" {
		return Identity{Kind: KindGuest, ID: guestID}, nil
	}

	guestID := fmt.Sprintf("guest_%d_%s", m.now().UnixMilli(), m.suffix())
	if err := m.store.Put(storage.KeyGuestSession, guestID); err != nil {
		return Identity{}, fmt.Errorf("persisting guest id: %w", err)
	}
	return Identity{Kind: KindGuest, ID: guestID}, nil
}

// SetAuthenticated records the identity-provider-issued id. The guest marker
// is deliberately left in place: the merge resolver clears it only after a
// successful guest-cart merge.
func (m *Manager) SetAuthenticated(id string) error {
	if id == "" {
		return fmt.Errorf("authenticated id must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Put(storage.KeyAuthUser, id); err != nil {
		return fmt.Errorf("persisting auth id: %w", err)
	}
	return nil
}

// GuestID returns the persisted guest session id, if any. Used by the merge
// resolver to scope the remote merge request.
func (m *Manager) GuestID() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok, err := m.store.Get(storage.KeyGuestSession)
	if err != nil || id == "" {
		return "", false
	}
	return id, ok
}

// ClearGuest removes the guest marker after a successful merge.
func (m *Manager) ClearGuest() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Delete(storage.KeyGuestSession)
}

// SignOut removes the authenticated marker. The next Resolve falls back to
// the guest id, generating a fresh one if none survives.
func (m *Manager) SignOut() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Delete(storage.KeyAuthUser)
}

// IdentityHeader yields the single outbound identity header for the active
// identity: X-Auth-Id when authenticated, X-Guest-Session otherwise.
func (m *Manager) IdentityHeader() (name, value string, err error) {
	id, err := m.Resolve()
	if err != nil {
		return "", "", err
	}
	if id.Kind == KindAuthenticated {
		return HeaderAuth, id.ID, nil
	}
	return HeaderGuest, id.ID, nil
}
