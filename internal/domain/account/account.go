// Package account defines tenant accounts and their licenses.
package account

import (
	"errors"
	"net/mail"
	"time"
)

// LicenseType is the commercial plan of an account.
type LicenseType string

const (
	LicenseTrial    LicenseType = "trial"
	LicenseMonthly  LicenseType = "mensal"
	LicenseYearly   LicenseType = "anual"
	LicenseLifetime LicenseType = "vitalicia"
)

// LicenseStatus is the access state derived from the plan and its expiry.
// Transitions are one-directional (trial → expired, active → blocked)
// unless an admin intervenes.
type LicenseStatus string

const (
	StatusTrial   LicenseStatus = "trial"
	StatusActive  LicenseStatus = "active"
	StatusBlocked LicenseStatus = "blocked"
	StatusExpired LicenseStatus = "expired"
)

// TrialDays is the default trial window granted on first login.
const TrialDays = 7

// Account is one authenticated tenant. Its ID doubles as the tenant
// identifier scoping menu and order data.
type Account struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
	LastSeenAt   time.Time `json:"last_seen_at,omitzero"`
}

// License is the nested license sub-resource of an account. Mutated by the
// admin panel or by plan-expiry checks.
type License struct {
	Type            LicenseType   `json:"type"`
	Status          LicenseStatus `json:"status"`
	ExpirationDate  time.Time     `json:"expiration_date,omitzero"`
	AutoRenew       bool          `json:"auto_renew"`
	AdminNotes      string        `json:"admin_notes,omitempty"`
	LastModified    time.Time     `json:"last_modified,omitzero"`
	ModifiedBy      string        `json:"modified_by,omitempty"`
	ModifiedByEmail string        `json:"modified_by_email,omitempty"`
}

// NewTrialLicense returns the license granted to a freshly created account.
func NewTrialLicense(now time.Time) License {
	return License{
		Type:           LicenseTrial,
		Status:         StatusTrial,
		ExpirationDate: now.AddDate(0, 0, TrialDays),
	}
}

// Expire applies the plan-expiry rules and reports whether the license
// changed: a past-due trial expires, a past-due paid plan without
// auto-renew is blocked. Lifetime licenses never expire.
func (l *License) Expire(now time.Time) bool {
	if l.Type == LicenseLifetime || l.ExpirationDate.IsZero() || now.Before(l.ExpirationDate) {
		return false
	}
	if l.AutoRenew {
		return false
	}
	switch l.Status {
	case StatusTrial:
		l.Status = StatusExpired
		return true
	case StatusActive:
		l.Status = StatusBlocked
		return true
	}
	return false
}

// Usable reports whether the license currently grants access to the app.
func (l *License) Usable() bool {
	return l.Status == StatusTrial || l.Status == StatusActive
}

// CreateRequest is the input for registering a new account.
type CreateRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if r.DisplayName == "" {
		return errors.New("display name is required")
	}
	if len(r.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// LoginRequest is the input for authenticating.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that the LoginRequest has all required fields.
func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// UpdateLicenseRequest is the admin panel's license mutation input.
type UpdateLicenseRequest struct {
	Type           LicenseType   `json:"type"`
	Status         LicenseStatus `json:"status"`
	ExpirationDate time.Time     `json:"expiration_date,omitzero"`
	AutoRenew      bool          `json:"auto_renew"`
	AdminNotes     string        `json:"admin_notes"`
}

// Validate checks the license mutation fields.
func (r *UpdateLicenseRequest) Validate() error {
	switch r.Type {
	case LicenseTrial, LicenseMonthly, LicenseYearly, LicenseLifetime:
	default:
		return errors.New("invalid license type")
	}
	switch r.Status {
	case StatusTrial, StatusActive, StatusBlocked, StatusExpired:
	default:
		return errors.New("invalid license status")
	}
	return nil
}
