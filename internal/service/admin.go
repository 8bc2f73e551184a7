package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/docegestao/docegestao/internal/domain"
	"github.com/docegestao/docegestao/internal/domain/account"
	"github.com/docegestao/docegestao/internal/domain/principal"
	"github.com/docegestao/docegestao/internal/port/docstore"
)

// AccountSummary is one row of the admin panel: the account joined with
// its license.
type AccountSummary struct {
	account.Account
	License account.License `json:"license"`
}

// Stats is the admin dashboard aggregate.
type Stats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Trial   int `json:"trial"`
	Blocked int `json:"blocked"`
	Expired int `json:"expired"`
}

// AdminService backs the user/license admin panel.
type AdminService struct {
	backend docstore.Backend
	auth    *AuthService
	now     func() time.Time
	log     *slog.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(backend docstore.Backend, auth *AuthService, log *slog.Logger) *AdminService {
	if log == nil {
		log = slog.Default()
	}
	return &AdminService{backend: backend, auth: auth, now: time.Now, log: log}
}

// ListAccounts returns every account joined with its license, applying the
// plan-expiry rules on read so the panel never shows a stale "active".
func (s *AdminService) ListAccounts(ctx context.Context) ([]AccountSummary, error) {
	docs, err := s.backend.List(ctx, docstore.AccountsPrefix)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	licenses := make(map[string]account.License)
	var accounts []account.Account

	for _, doc := range docs {
		rest := strings.TrimPrefix(doc.Path, docstore.AccountsPrefix)
		if uid, ok := strings.CutSuffix(rest, "/license"); ok {
			var lic account.License
			if err := json.Unmarshal(doc.Data, &lic); err != nil {
				s.log.Warn("skipping undecodable license", "path", doc.Path, "error", err)
				continue
			}
			licenses[uid] = lic
			continue
		}
		if strings.Contains(rest, "/") {
			continue
		}
		var rec accountRecord
		if err := json.Unmarshal(doc.Data, &rec); err != nil {
			s.log.Warn("skipping undecodable account", "path", doc.Path, "error", err)
			continue
		}
		accounts = append(accounts, rec.Account)
	}

	out := make([]AccountSummary, 0, len(accounts))
	for _, acc := range accounts {
		lic, ok := licenses[acc.UID]
		if !ok {
			lic = account.NewTrialLicense(acc.CreatedAt)
		}
		if lic.Expire(s.now()) {
			s.persistLicense(ctx, acc.UID, &lic, "system", "")
		}
		out = append(out, AccountSummary{Account: acc, License: lic})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// GetLicense returns one account's license. Unlike EnsureLicense it never
// materializes a trial for a uid with no account behind it.
func (s *AdminService) GetLicense(ctx context.Context, uid string) (*account.License, error) {
	if _, err := s.auth.GetAccount(ctx, uid); err != nil {
		return nil, err
	}
	return s.auth.EnsureLicense(ctx, uid)
}

// UpdateLicense applies an admin's license mutation, stamping the audit
// fields with the acting admin.
func (s *AdminService) UpdateLicense(ctx context.Context, admin *principal.Principal, uid string, req account.UpdateLicenseRequest) (*account.License, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	if _, err := s.auth.GetAccount(ctx, uid); err != nil {
		return nil, err
	}

	lic := account.License{
		Type:           req.Type,
		Status:         req.Status,
		ExpirationDate: req.ExpirationDate,
		AutoRenew:      req.AutoRenew,
		AdminNotes:     req.AdminNotes,
	}
	s.persistLicense(ctx, uid, &lic, admin.ID, admin.Email)

	s.log.Info("license updated", "uid", uid, "type", lic.Type, "status", lic.Status, "by", admin.Email)
	return &lic, nil
}

// DeleteAccount removes an account, its license, its email index entry and
// all documents in its tenant namespace.
func (s *AdminService) DeleteAccount(ctx context.Context, uid string) error {
	acc, err := s.auth.GetAccount(ctx, uid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete account %s: %w", uid, domain.ErrNotFound)
		}
		return err
	}

	docs, err := s.backend.List(ctx, "tenants/"+uid+"/")
	if err != nil {
		return fmt.Errorf("list tenant data: %w", err)
	}
	for _, doc := range docs {
		if err := s.backend.Delete(ctx, doc.Path); err != nil {
			return fmt.Errorf("delete %s: %w", doc.Path, err)
		}
	}

	if err := s.backend.Delete(ctx, docstore.LicensePath(uid)); err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, emailIndexPath(normalizeEmail(acc.Email))); err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, docstore.AccountPath(uid)); err != nil {
		return err
	}

	s.log.Info("account deleted", "uid", uid, "email", acc.Email, "documents", len(docs))
	return nil
}

// Stats aggregates license statuses for the dashboard header.
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	summaries, err := s.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{Total: len(summaries)}
	for _, sum := range summaries {
		switch sum.License.Status {
		case account.StatusActive:
			st.Active++
		case account.StatusTrial:
			st.Trial++
		case account.StatusBlocked:
			st.Blocked++
		case account.StatusExpired:
			st.Expired++
		}
	}
	return st, nil
}

func (s *AdminService) persistLicense(ctx context.Context, uid string, lic *account.License, by, byEmail string) {
	lic.LastModified = s.now()
	lic.ModifiedBy = by
	lic.ModifiedByEmail = byEmail
	if _, err := s.backend.Set(ctx, docstore.LicensePath(uid), mustJSON(lic), by); err != nil {
		s.log.Error("persist license failed", "uid", uid, "error", err)
	}
}
