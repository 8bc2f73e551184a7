package http

import (
	"net/http"

	"github.com/docegestao/docegestao/internal/domain/order"
	"github.com/docegestao/docegestao/internal/middleware"
)

// ListOrders returns the tenant's orders sorted by delivery date.
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())

	orders, err := h.Orders.List(r.Context(), tenant)
	if err != nil {
		writeDomainError(w, err, "orders not found")
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetOrder returns a single order by id.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())

	o, err := h.Orders.Get(r.Context(), tenant, urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "order not found")
		return
	}

	writeJSON(w, http.StatusOK, o)
}

// CreateOrder stores a new order, assigning its id server-side.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())

	o, ok := readJSON[order.Order](w, r)
	if !ok {
		return
	}
	o.ID = ""

	saved, err := h.Orders.Save(r.Context(), tenant, &o)
	if err != nil {
		writeDomainError(w, err, "order not found")
		return
	}

	h.Metrics.CountSaveFlushed(r.Context())
	writeJSON(w, http.StatusCreated, saved)
}

// UpdateOrder saves an existing order. The path id wins over any id in
// the body.
func (h *Handlers) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())

	o, ok := readJSON[order.Order](w, r)
	if !ok {
		return
	}
	o.ID = urlParam(r, "id")

	saved, err := h.Orders.Save(r.Context(), tenant, &o)
	if err != nil {
		writeDomainError(w, err, "order not found")
		return
	}

	h.Metrics.CountSaveFlushed(r.Context())
	writeJSON(w, http.StatusOK, saved)
}

// DeleteOrder removes an order.
func (h *Handlers) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())

	if err := h.Orders.Delete(r.Context(), tenant, urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "order not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
