package http

import (
	"net/http"

	"github.com/docegestao/docegestao/internal/domain/account"
	"github.com/docegestao/docegestao/internal/middleware"
)

// ListAccounts returns every account joined with its license.
func (h *Handlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Admin.ListAccounts(r.Context())
	if err != nil {
		writeDomainError(w, err, "accounts not found")
		return
	}

	writeJSON(w, http.StatusOK, accounts)
}

// GetLicense returns one account's license.
func (h *Handlers) GetLicense(w http.ResponseWriter, r *http.Request) {
	lic, err := h.Admin.GetLicense(r.Context(), urlParam(r, "uid"))
	if err != nil {
		writeDomainError(w, err, "license not found")
		return
	}

	writeJSON(w, http.StatusOK, lic)
}

// UpdateLicense changes an account's plan and records who did it.
func (h *Handlers) UpdateLicense(w http.ResponseWriter, r *http.Request) {
	admin := middleware.PrincipalFromContext(r.Context())

	req, ok := readJSON[account.UpdateLicenseRequest](w, r)
	if !ok {
		return
	}

	lic, err := h.Admin.UpdateLicense(r.Context(), admin, urlParam(r, "uid"), req)
	if err != nil {
		writeDomainError(w, err, "license not found")
		return
	}

	writeJSON(w, http.StatusOK, lic)
}

// DeleteAccount removes an account, its license and every tenant document.
func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	uid := urlParam(r, "uid")

	admin := middleware.PrincipalFromContext(r.Context())
	if admin != nil && admin.ID == uid {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := h.Admin.DeleteAccount(r.Context(), uid); err != nil {
		writeDomainError(w, err, "account not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AdminStats returns the admin dashboard aggregates.
func (h *Handlers) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Admin.Stats(r.Context())
	if err != nil {
		writeDomainError(w, err, "stats unavailable")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
