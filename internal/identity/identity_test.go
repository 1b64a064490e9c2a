package identity

import (
	"strings"
	"sync"
	"testing"
	"time"

	"cartsync/internal/storage"
)

func newTestManager(store storage.Store) *Manager {
	m := NewManager(store)
	m.now = func() time.Time { return time.UnixMilli(1700000000000) }
	m.suffix = func() string { return "abc123" }
	return m
}

func TestResolve_GeneratesAndPersistsGuestID(t *testing.T) {
	store := storage.NewMemory()
	m := newTestManager(store)

	id, err := m.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id.Kind != KindGuest {
		t.Errorf("Kind = %v, want guest", id.Kind)
	}
	if id.ID != "guest_1700000000000_abc123" {
		t.Errorf("ID = %q, want guest_1700000000000_abc123", id.ID)
	}

	// Second resolution reuses the persisted id
	again, err := m.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if again.ID != id.ID {
		t.Errorf("second Resolve = %q, want same id %q", again.ID, id.ID)
	}

	if v, ok, _ := store.Get(storage.KeyGuestSession); !ok || v != id.ID {
		t.Errorf("guest id not persisted: %q, %v", v, ok)
	}
}

func TestResolve_ReusesPersistedGuestAcrossManagers(t *testing.T) {
	store := storage.NewMemory()
	store.Put(storage.KeyGuestSession, "guest_42_prior")

	m := newTestManager(store)
	id, err := m.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id.ID != "guest_42_prior" {
		t.Errorf("ID = %q, want persisted guest_42_prior", id.ID)
	}
}

// TestResolve_ConcurrentSingleGuestID verifies the idempotent lazy-init
// contract: racing resolutions must agree on one guest id.
func TestResolve_ConcurrentSingleGuestID(t *testing.T) {
	store := storage.NewMemory()
	m := NewManager(store) // real clock and suffix: ids would differ if minted twice

	const n = 32
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := m.Resolve()
			if err != nil {
				t.Errorf("Resolve: %v", err)
				return
			}
			ids[i] = id.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("concurrent Resolve minted distinct guest ids: %q vs %q", ids[0], ids[i])
		}
	}
	if !strings.HasPrefix(ids[0], "guest_") {
		t.Errorf("guest id %q missing prefix", ids[0])
	}
}

func TestSetAuthenticated_WinsOverGuest(t *testing.T) {
	store := storage.NewMemory()
	m := newTestManager(store)

	if _, err := m.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := m.SetAuthenticated("user-77"); err != nil {
		t.Fatalf("SetAuthenticated: %v", err)
	}

	id, err := m.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id.Kind != KindAuthenticated || id.ID != "user-77" {
		t.Errorf("Resolve = %+v, want authenticated user-77", id)
	}

	// Guest marker survives sign-in until the merge resolver clears it
	if _, ok := m.GuestID(); !ok {
		t.Error("guest id should survive sign-in until merge completes")
	}
}

func TestSetAuthenticated_RejectsEmpty(t *testing.T) {
	m := newTestManager(storage.NewMemory())
	if err := m.SetAuthenticated(""); err == nil {
		t.Error("expected error for empty authenticated id")
	}
}

func TestClearGuest(t *testing.T) {
	store := storage.NewMemory()
	m := newTestManager(store)
	m.Resolve()

	if err := m.ClearGuest(); err != nil {
		t.Fatalf("ClearGuest: %v", err)
	}
	if _, ok := m.GuestID(); ok {
		t.Error("guest id present after ClearGuest")
	}
}

func TestSignOut_FallsBackToGuest(t *testing.T) {
	store := storage.NewMemory()
	m := newTestManager(store)
	m.SetAuthenticated("user-77")

	if err := m.SignOut(); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	id, err := m.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id.Kind != KindGuest {
		t.Errorf("Kind after sign-out = %v, want guest", id.Kind)
	}
}

func TestIdentityHeader_MutuallyExclusive(t *testing.T) {
	store := storage.NewMemory()
	m := newTestManager(store)

	name, value, err := m.IdentityHeader()
	if err != nil {
		t.Fatalf("IdentityHeader: %v", err)
	}
	if name != HeaderGuest || !strings.HasPrefix(value, "guest_") {
		t.Errorf("guest header = %s: %s", name, value)
	}

	m.SetAuthenticated("user-77")
	name, value, err = m.IdentityHeader()
	if err != nil {
		t.Fatalf("IdentityHeader: %v", err)
	}
	if name != HeaderAuth || value != "user-77" {
		t.Errorf("auth header = %s: %s, want %s: user-77", name, value, HeaderAuth)
	}
}
