package http

import (
	"net/http"

	otelad "github.com/docegestao/docegestao/internal/adapter/otel"
	"github.com/docegestao/docegestao/internal/adapter/ws"
	"github.com/docegestao/docegestao/internal/middleware"
	"github.com/docegestao/docegestao/internal/service"
)

// Handlers bundles the service dependencies of every HTTP endpoint.
type Handlers struct {
	Auth    *service.AuthService
	Menus   *service.MenuService
	Orders  *service.OrderService
	Quotes  *service.QuoteService
	Admin   *service.AdminService
	Hub     *ws.Hub
	Metrics *otelad.Metrics

	// Throttle guards the credential endpoints; nil disables it.
	Throttle *middleware.Throttle

	Version string
}

// Health reports liveness plus a few cheap gauges.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"version":     h.Version,
		"connections": h.Hub.ConnectionCount(),
	})
}
