package http

import (
	"net/http"

	"github.com/docegestao/docegestao/internal/domain/account"
	"github.com/docegestao/docegestao/internal/middleware"
)

// Register creates a new account with a fresh trial license.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[account.CreateRequest](w, r)
	if !ok {
		return
	}

	acc, err := h.Auth.Register(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "account not found")
		return
	}

	writeJSON(w, http.StatusCreated, acc)
}

// Login exchanges credentials for an access token. Expired trials and
// lapsed plans are rejected here.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[account.LoginRequest](w, r)
	if !ok {
		return
	}

	resp, err := h.Auth.Login(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "invalid email or password")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Me returns the account and license of the authenticated principal.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	acc, err := h.Auth.GetAccount(r.Context(), p.ID)
	if err != nil {
		writeDomainError(w, err, "account not found")
		return
	}
	lic, err := h.Auth.EnsureLicense(r.Context(), p.ID)
	if err != nil {
		writeDomainError(w, err, "license not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"account": acc,
		"license": lic,
	})
}
