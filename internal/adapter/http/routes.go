package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/docegestao/docegestao/internal/middleware"
)

// MountRoutes registers all API routes on the given chi router. Auth
// middleware is mounted by the caller ahead of this, so handlers can rely
// on a principal being in the context for non-public routes.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)
	r.Get("/ws", h.Hub.HandleWS)

	r.Route("/api/v1", func(r chi.Router) {
		// Auth. Register and login take credentials, so they sit behind
		// the per-IP throttle.
		r.Group(func(r chi.Router) {
			if h.Throttle != nil {
				r.Use(h.Throttle.Handler)
			}
			r.Post("/auth/register", h.Register)
			r.Post("/auth/login", h.Login)
		})
		r.Get("/auth/me", h.Me)

		// Menu
		r.Get("/menu", h.GetMenu)
		r.Put("/menu", h.UpdateMenu)

		// Public menu display (no session)
		r.Get("/public/{tenant}/menu", h.PublicMenu)

		// Orders
		r.Get("/orders", h.ListOrders)
		r.Post("/orders", h.CreateOrder)
		r.Get("/orders/{id}", h.GetOrder)
		r.Put("/orders/{id}", h.UpdateOrder)
		r.Delete("/orders/{id}", h.DeleteOrder)

		// Quotes
		r.Post("/quotes", h.BuildQuote)

		// Admin panel
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/accounts", h.ListAccounts)
			r.Delete("/accounts/{uid}", h.DeleteAccount)
			r.Get("/accounts/{uid}/license", h.GetLicense)
			r.Put("/accounts/{uid}/license", h.UpdateLicense)
			r.Get("/stats", h.AdminStats)
		})
	})
}
