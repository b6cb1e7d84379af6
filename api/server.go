/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request, echoed in logs
  2. RequestLogger: Structured access log (zerolog)
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CORS:          Cross-origin requests for the operator UI

ROUTE GROUPS:
  /health, /                 Public
  /accounts/*                Accounts            (X-API-Key)
  /transactions/*            Transactions        (X-API-Key)
  /cycles/*                  Cycles              (X-API-Key)
  /email_checkpoints/*       Ingestion bookmarks (X-API-Key)

  Static segments (/accounts/by-number, /cycles/for-date) take precedence
  over /{id} in chi, so the lookups never parse as ids.

SECURITY:
  Gated routes require X-API-Key to equal the configured key. When no key
  is configured the gate is open; cmd/server warns about this at startup.
  CORS preflight is answered before the gate.

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: API key gate
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the settings the router needs from configuration.
type RouterConfig struct {
	APIKey         string
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", APIKeyHeader},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Get("/", h.Root)

	r.Group(func(r chi.Router) {
		r.Use(RequireAPIKey(cfg.APIKey))

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Get("/by-number", h.GetAccountIDByNumber)
			r.Get("/{id}", h.GetAccount)
			r.Put("/{id}", h.UpdateAccount)
			r.Delete("/{id}", h.DeleteAccount)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Post("/", h.CreateTransaction)
			r.Get("/{id}", h.GetTransaction)
			r.Put("/{id}", h.UpdateTransaction)
			r.Delete("/{id}", h.DeleteTransaction)
		})

		r.Route("/cycles", func(r chi.Router) {
			r.Get("/", h.ListCycles)
			r.Post("/", h.CreateCycle)
			r.Get("/for-date", h.GetCycleForDate)
			r.Get("/{id}", h.GetCycle)
			r.Put("/{id}", h.UpdateCycle)
			r.Delete("/{id}", h.DeleteCycle)
		})

		r.Route("/email_checkpoints", func(r chi.Router) {
			r.Get("/", h.ListCheckpoints)
			r.Post("/", h.CreateCheckpoint)
			r.Get("/{folder}", h.GetCheckpoint)
			r.Put("/{folder}", h.UpsertCheckpoint)
			r.Delete("/{folder}", h.DeleteCheckpoint)
		})
	})

	return r
}
