package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"cartsync/internal/model"
	"cartsync/internal/transport"
)

// userAgent identifies this client to the cart service.
// The storefront CDN rate-limits requests without a User-Agent.
const userAgent = "cartsync/1.0"

// defaultTimeout bounds every round-trip; the engines treat a timeout the
// same as any other remote failure.
const defaultTimeout = 30 * time.Second

// IdentitySource yields the single outbound identity header for the active
// session. identity.Manager is the production implementation.
type IdentitySource interface {
	IdentityHeader() (name, value string, err error)
}

// Config holds client configuration.
type Config struct {
	// BaseURL of the cart service, e.g. "https://shop.example.com/api".
	BaseURL string

	// Identity supplies the per-request identity header. Required.
	Identity IdentitySource

	// MinServerVersion is the oldest server protocol version this client
	// accepts. Default "1.0.0".
	MinServerVersion string

	// ClientVersion advertised in the Sync-Meta header. Default "1.0.0".
	ClientVersion string

	// HTTPClient overrides the default browser-fingerprint client. Tests
	// point this at httptest servers.
	HTTPClient *http.Client
}

// Client implements Remote over HTTP against the cart service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	identity   IdentitySource
	minServer  string
	version    string
}

// New creates a cart service client with the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Identity == nil {
		return nil, fmt.Errorf("identity source is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Browser TLS fingerprint transport; see internal/transport for rationale.
		httpClient = &http.Client{
			Timeout:   defaultTimeout,
			Transport: transport.NewBrowserTransport(defaultTimeout),
		}
	}

	minServer := cfg.MinServerVersion
	if minServer == "" {
		minServer = "1.0.0"
	}
	version := cfg.ClientVersion
	if version == "" {
		version = "1.0.0"
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		identity:   cfg.Identity,
		minServer:  minServer,
		version:    version,
	}, nil
}

// === Cart Operations ===

func (c *Client) GetCart(ctx context.Context) (*model.Cart, error) {
	return c.cartRequest(ctx, http.MethodGet, "/cart", nil, "get cart")
}

func (c *Client) AddItem(ctx context.Context, req AddItemRequest) (*model.Cart, error) {
	return c.cartRequest(ctx, http.MethodPost, "/cart", req, "add item")
}

func (c *Client) UpdateItem(ctx context.Context, itemID string, quantity int) (*model.Cart, error) {
	body := struct {
		Quantity int `json:"quantity"`
	}{Quantity: quantity}
	return c.cartRequest(ctx, http.MethodPut, "/cart/"+itemID, body, "update item")
}

func (c *Client) RemoveItem(ctx context.Context, itemID string) (*model.Cart, error) {
	return c.cartRequest(ctx, http.MethodDelete, "/cart/"+itemID, nil, "remove item")
}

func (c *Client) ClearCart(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/cart", nil, "clear cart")
	return err
}

func (c *Client) ApplyPromo(ctx context.Context, code string) (*model.Cart, error) {
	body := struct {
		Code string `json:"code"`
	}{Code: code}

	cart, err := c.cartRequest(ctx, http.MethodPost, "/cart/promo", body, "apply promo")
	if err != nil {
		return nil, promoError(code, err)
	}
	return cart, nil
}

func (c *Client) RemovePromo(ctx context.Context) (*model.Cart, error) {
	return c.cartRequest(ctx, http.MethodDelete, "/cart/promo", nil, "remove promo")
}

func (c *Client) MergeCart(ctx context.Context, guestSessionID string) (*model.Cart, error) {
	body := struct {
		SessionID string `json:"sessionId"`
	}{SessionID: guestSessionID}
	return c.cartRequest(ctx, http.MethodPost, "/cart/merge", body, "merge cart")
}

// === Wishlist Operations ===

func (c *Client) GetWishlist(ctx context.Context) ([]model.WishlistEntry, error) {
	respBody, err := c.do(ctx, http.MethodGet, "/wishlist", nil, "get wishlist")
	if err != nil {
		return nil, err
	}

	var env wishlistEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("parsing wishlist response: %w", err)
	}
	if !env.Success {
		return nil, model.NewRemoteError("get wishlist", fmt.Errorf("service reported failure: %s", env.Message))
	}
	return wishlistFromWire(env.Data), nil
}

func (c *Client) AddWishlistItem(ctx context.Context, productID string) error {
	body := struct {
		ProductID string `json:"productId"`
	}{ProductID: productID}
	_, err := c.do(ctx, http.MethodPost, "/wishlist", body, "add wishlist item")
	return err
}

func (c *Client) RemoveWishlistItem(ctx context.Context, productID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/wishlist/"+productID, nil, "remove wishlist item")
	return err
}

func (c *Client) ClearWishlist(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/wishlist", nil, "clear wishlist")
	return err
}

// === Helpers ===

// cartRequest performs a request whose success payload is the authoritative
// cart state.
func (c *Client) cartRequest(ctx context.Context, method, path string, body any, op string) (*model.Cart, error) {
	respBody, err := c.do(ctx, method, path, body, op)
	if err != nil {
		return nil, err
	}

	var env cartEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("parsing cart response: %w", err)
	}
	if !env.Success {
		return nil, model.NewRemoteError(op, fmt.Errorf("service reported failure: %s", env.Message))
	}
	return cartFromWire(env.Data), nil
}

// do executes one round-trip and returns the raw response body.
// Transport failures and error statuses come back as EngineErrors.
func (c *Client) do(ctx context.Context, method, path string, body any, op string) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if err := c.setHeaders(req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewRemoteError(op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if err := c.checkServerVersion(resp); err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, c.parseErrorResponse(resp.StatusCode, respBody, op)
	}

	return respBody, nil
}

// setHeaders sets the standard headers plus the identity header and the
// Sync-Meta request dictionary. Exactly one identity header goes out per
// request: auth id when signed in, guest session otherwise.
func (c *Client) setHeaders(req *http.Request) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	name, value, err := c.identity.IdentityHeader()
	if err != nil {
		return fmt.Errorf("resolving identity: %w", err)
	}
	req.Header.Set(name, value)

	meta, err := BuildSyncMeta(uuid.NewString(), c.version)
	if err != nil {
		return fmt.Errorf("building sync meta: %w", err)
	}
	req.Header.Set(HeaderSyncMeta, meta)
	return nil
}

// checkServerVersion enforces protocol compatibility when the server
// advertises a version. A server that sends no header is tolerated; an
// incompatible one is not.
func (c *Client) checkServerVersion(resp *http.Response) error {
	header := resp.Header.Get(HeaderServerVersion)
	if header == "" {
		return nil
	}

	sv, err := ParseServerVersion(header)
	if err != nil {
		// Malformed advertisement is not grounds to fail the operation.
		return nil
	}

	if !Compatible(sv.Version, c.minServer) {
		return model.NewVersionError(sv.Version, c.minServer)
	}
	if sv.MinClient != "" && !Compatible(c.version, sv.MinClient) {
		return model.NewVersionError(sv.Version, c.version)
	}
	return nil
}

// parseErrorResponse converts a cart service error status to an EngineError.
func (c *Client) parseErrorResponse(statusCode int, body []byte, op string) error {
	var env envelope
	json.Unmarshal(body, &env) // Best effort parse

	switch statusCode {
	case 404:
		return model.NewNotFoundError(op + " target")
	case 401, 403:
		return model.NewNotAuthenticatedError(op)
	case 400:
		msg := env.Message
		if msg == "" {
			msg = "invalid request"
		}
		return model.NewValidationError("request", msg)
	case 422:
		return &model.EngineError{
			Code:       "REJECTED",
			Message:    env.Message,
			StatusCode: 422,
			Err:        model.ErrInvalidRequest,
		}
	case 429:
		return model.NewRateLimitError()
	default:
		return model.NewRemoteError(op, fmt.Errorf("status %d: %s", statusCode, env.Message))
	}
}

// promoError normalizes promo rejections into a structured promo failure
// while passing validation/remote errors through untouched.
func promoError(code string, err error) error {
	if ee, ok := err.(*model.EngineError); ok {
		switch ee.StatusCode {
		case 400, 404, 422:
			return model.NewPromoError(code, ee.Message)
		}
	}
	return err
}
