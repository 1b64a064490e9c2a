package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cartsync/internal/model"
)

type stubIdentity struct {
	name  string
	value string
}

func (s stubIdentity) IdentityHeader() (string, string, error) {
	return s.name, s.value, nil
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(Config{
		BaseURL:    srv.URL,
		Identity:   stubIdentity{name: "X-Guest-Session", value: "guest_1_abc"},
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

const cartJSON = `{
	"success": true,
	"data": {
		"items": [
			{"id": "srv-1", "productId": "prod-1", "name": "Mug", "unitPrice": "24.99", "quantity": 2},
			{"id": "srv-2", "productId": "prod-2", "name": "Shirt", "unitPrice": "19.99", "quantity": 1, "variant": "XL"}
		],
		"subtotal": "69.97",
		"discount": "0.00",
		"tax": "5.60",
		"shipping": "0.00",
		"total": "75.57"
	}
}`

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Identity: stubIdentity{}}); err == nil {
		t.Error("expected error for missing base URL")
	}
	if _, err := New(Config{BaseURL: "https://shop.example"}); err == nil {
		t.Error("expected error for missing identity source")
	}
}

func TestGetCart_ParsesWireFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/cart" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(cartJSON))
	}))
	defer srv.Close()

	cart, err := newTestClient(t, srv).GetCart(context.Background())
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}

	if len(cart.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(cart.Items))
	}
	if cart.Items[0].UnitPrice != 2499 {
		t.Errorf("UnitPrice = %d, want 2499 cents", cart.Items[0].UnitPrice)
	}
	if cart.Items[1].Variant != "XL" {
		t.Errorf("Variant = %q, want XL", cart.Items[1].Variant)
	}
	if cart.Totals.Total != 7557 {
		t.Errorf("Total = %d, want 7557 cents", cart.Totals.Total)
	}
	if cart.Promo != nil {
		t.Errorf("Promo = %+v, want nil", cart.Promo)
	}
}

func TestAddItem_HeadersAndBody(t *testing.T) {
	var gotReq *http.Request
	var gotBody AddItemRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(cartJSON))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).AddItem(context.Background(), AddItemRequest{
		ProductID: "prod-1", Quantity: 2, Variant: "XL",
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if got := gotReq.Header.Get("X-Guest-Session"); got != "guest_1_abc" {
		t.Errorf("identity header = %q, want guest_1_abc", got)
	}
	if got := gotReq.Header.Get("X-Auth-Id"); got != "" {
		t.Errorf("auth header present (%q) alongside guest header", got)
	}
	meta := gotReq.Header.Get(HeaderSyncMeta)
	if !strings.Contains(meta, "req=") || !strings.Contains(meta, "client=") {
		t.Errorf("Sync-Meta = %q, want req and client members", meta)
	}
	if gotBody.ProductID != "prod-1" || gotBody.Quantity != 2 || gotBody.Variant != "XL" {
		t.Errorf("body = %+v", gotBody)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
	}{
		{"not found", 404, `{"success":false,"message":"no such item"}`, model.ErrNotFound},
		{"unauthorized", 401, `{"success":false}`, model.ErrNotAuthenticated},
		{"bad request", 400, `{"success":false,"message":"quantity"}`, model.ErrInvalidRequest},
		{"rate limited", 429, `{"success":false}`, model.ErrRateLimited},
		{"server error", 500, `{"success":false,"message":"boom"}`, model.ErrRemoteUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv).GetCart(context.Background())
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("GetCart error = %v, want sentinel %v", err, tt.sentinel)
			}
		})
	}
}

func TestConnectionFailure_IsRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := newTestClient(t, srv).GetCart(context.Background())
	if !errors.Is(err, model.ErrRemoteUnavailable) {
		t.Errorf("error = %v, want ErrRemoteUnavailable", err)
	}
}

func TestApplyPromo_RejectionIsStructured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(422)
		w.Write([]byte(`{"success":false,"message":"code expired"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).ApplyPromo(context.Background(), "SAVE10")
	if !errors.Is(err, model.ErrPromoRejected) {
		t.Fatalf("error = %v, want ErrPromoRejected", err)
	}
	if !strings.Contains(err.Error(), "SAVE10") || !strings.Contains(err.Error(), "code expired") {
		t.Errorf("promo error %q should carry code and server message", err.Error())
	}
}

func TestApplyPromo_SuccessCarriesPromoAndTotals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"success": true,
			"data": {
				"items": [{"id": "srv-1", "productId": "prod-1", "name": "Mug", "unitPrice": "100.00", "quantity": 1}],
				"subtotal": "100.00", "discount": "10.00", "tax": "7.20", "shipping": "0.00", "total": "97.20",
				"promoCode": {"code": "SAVE10", "discountPercent": 10}
			}
		}`))
	}))
	defer srv.Close()

	cart, err := newTestClient(t, srv).ApplyPromo(context.Background(), "SAVE10")
	if err != nil {
		t.Fatalf("ApplyPromo: %v", err)
	}
	if cart.Promo == nil || cart.Promo.Code != "SAVE10" {
		t.Fatalf("Promo = %+v, want SAVE10", cart.Promo)
	}
	if cart.Totals.Discount != 1000 {
		t.Errorf("Discount = %d, want 1000", cart.Totals.Discount)
	}
	if !cart.Totals.Consistent() {
		t.Errorf("server totals inconsistent: %+v", cart.Totals)
	}
}

func TestVersionCheck(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{"compatible", `version="1.2.0"`, false},
		{"too old", `version="0.9.0"`, true},
		{"client below server minimum", `version="1.2.0", min_client="2.0.0"`, true},
		{"no header tolerated", "", false},
		{"malformed tolerated", "?!", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.header != "" {
					w.Header().Set(HeaderServerVersion, tt.header)
				}
				w.Write([]byte(cartJSON))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv).GetCart(context.Background())
			if tt.wantErr && !errors.Is(err, model.ErrIncompatible) {
				t.Errorf("error = %v, want ErrIncompatible", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGetWishlist_ParsesEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wishlist" {
			t.Errorf("path = %s, want /wishlist", r.URL.Path)
		}
		w.Write([]byte(`{
			"success": true,
			"data": {"items": [
				{"productId": "prod-9", "name": "Lamp", "price": "34.50", "addedAt": "2026-08-01T10:00:00Z"}
			]}
		}`))
	}))
	defer srv.Close()

	entries, err := newTestClient(t, srv).GetWishlist(context.Background())
	if err != nil {
		t.Fatalf("GetWishlist: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Price != 3450 {
		t.Errorf("Price = %d, want 3450 cents", entries[0].Price)
	}
	if entries[0].AddedAt.IsZero() {
		t.Error("AddedAt not parsed")
	}
}

func TestMergeCart_SendsGuestSessionID(t *testing.T) {
	var got struct {
		SessionID string `json:"sessionId"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/cart/merge" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(cartJSON))
	}))
	defer srv.Close()

	if _, err := newTestClient(t, srv).MergeCart(context.Background(), "guest_1_abc"); err != nil {
		t.Fatalf("MergeCart: %v", err)
	}
	if got.SessionID != "guest_1_abc" {
		t.Errorf("sessionId = %q, want guest_1_abc", got.SessionID)
	}
}

func TestEnvelopeFailure_WithOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "message": "maintenance"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).GetCart(context.Background())
	if !errors.Is(err, model.ErrRemoteUnavailable) {
		t.Errorf("error = %v, want ErrRemoteUnavailable for success=false", err)
	}
}
