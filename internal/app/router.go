package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/helix-id/helix/internal/platform/httpx"
)

// RouteMounter attaches a component's routes to a router subtree.
type RouteMounter interface {
	MountRoutes(r chi.Router)
}

// RouterConfig collects everything the HTTP surface needs.
type RouterConfig struct {
	Middleware MiddlewareConfig
	Mounters   []RouteMounter
}

// NewRouter builds the chi router with the full middleware chain and all
// mounted API subtrees.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(cfg.Middleware) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		for _, m := range cfg.Mounters {
			m.MountRoutes(api)
		}
	})

	return r
}
