package http

import (
	"net/http"

	"github.com/docegestao/docegestao/internal/domain/menu"
	"github.com/docegestao/docegestao/internal/domain/quote"
	"github.com/docegestao/docegestao/internal/middleware"
)

// GetMenu returns the authenticated tenant's menu, materializing the
// starter menu on first access.
func (h *Handlers) GetMenu(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())

	doc, err := h.Menus.Get(r.Context(), tenant)
	if err != nil {
		writeDomainError(w, err, "menu not found")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// UpdateMenu replaces the tenant's menu document.
func (h *Handlers) UpdateMenu(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())

	doc, ok := readJSON[menu.Document](w, r)
	if !ok {
		return
	}

	saved, err := h.Menus.Update(r.Context(), tenant, &doc)
	if err != nil {
		writeDomainError(w, err, "menu not found")
		return
	}

	h.Metrics.CountSaveFlushed(r.Context())
	writeJSON(w, http.StatusOK, saved)
}

// PublicMenu serves the visible portion of a tenant's menu without
// authentication, for the customer-facing display page.
func (h *Handlers) PublicMenu(w http.ResponseWriter, r *http.Request) {
	tenant := urlParam(r, "tenant")
	if tenant == "" {
		writeError(w, http.StatusBadRequest, "tenant is required")
		return
	}

	doc, err := h.Menus.Public(r.Context(), tenant)
	if err != nil {
		writeDomainError(w, err, "menu not found")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// BuildQuote prices a customer selection against the tenant's menu.
func (h *Handlers) BuildQuote(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())

	req, ok := readJSON[quote.Request](w, r)
	if !ok {
		return
	}

	q, err := h.Quotes.Build(r.Context(), tenant, req)
	if err != nil {
		writeDomainError(w, err, "menu not found")
		return
	}

	writeJSON(w, http.StatusOK, q)
}
