// Package handler exposes the sync engines to shopping agents over MCP,
// plus the health endpoint for deployment probes.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"cartsync/internal/cart"
	"cartsync/internal/identity"
	"cartsync/internal/model"
	"cartsync/internal/wishlist"
)

// Handler holds dependencies for the agent-facing endpoint.
type Handler struct {
	carts  *cart.SyncEngine
	wishes *wishlist.Engine
	merges *cart.MergeResolver
	ids    *identity.Manager
	logger *slog.Logger
}

// New creates a Handler over the cart and wishlist engines.
func New(carts *cart.SyncEngine, wishes *wishlist.Engine, merges *cart.MergeResolver, ids *identity.Manager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{carts: carts, wishes: wishes, merges: merges, ids: ids, logger: logger}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// toolError converts engine errors to tool-result errors without leaking
// internals. Structured engine failures keep their code and message; anything
// else is logged and collapsed.
func (h *Handler) toolError(err error) error {
	var ee *model.EngineError
	if errors.As(err, &ee) {
		return err
	}
	h.logger.Error("tool internal error", "error", err.Error())
	return errors.New("internal error")
}
