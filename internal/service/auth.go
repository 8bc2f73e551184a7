// Package service implements the application services over the
// synchronized document store.
package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/docegestao/docegestao/internal/config"
	"github.com/docegestao/docegestao/internal/domain"
	"github.com/docegestao/docegestao/internal/domain/account"
	"github.com/docegestao/docegestao/internal/domain/principal"
	"github.com/docegestao/docegestao/internal/port/cache"
	"github.com/docegestao/docegestao/internal/port/docstore"
)

const (
	tokenAudience = "docegestao"
	tokenIssuer   = "docegestao-core"
	// {"alg":"HS256","typ":"JWT"} pre-encoded.
	tokenHeader = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9"

	emailIndexTTL = 10 * time.Minute
)

// TokenClaims is the payload of a signed access token.
type TokenClaims struct {
	UID      string `json:"uid"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	IsAdmin  bool   `json:"is_admin"`
	IssuedAt int64  `json:"iat"`
	Expiry   int64  `json:"exp"`
	JTI      string `json:"jti"`
	Audience string `json:"aud"`
	Issuer   string `json:"iss"`
}

// LoginResponse is returned on successful authentication.
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   int             `json:"expires_in"`
	Account     account.Account `json:"account"`
	License     account.License `json:"license"`
}

// AuthService handles account registration, login, trial license
// provisioning, plan-expiry checks and access tokens.
type AuthService struct {
	backend docstore.Backend
	cache   cache.Cache
	cfg     *config.Auth
	secret  []byte
	now     func() time.Time
	log     *slog.Logger
}

// NewAuthService creates a new authentication service. l1 may be nil.
func NewAuthService(backend docstore.Backend, l1 cache.Cache, cfg *config.Auth, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	secret := cfg.TokenSecret
	if secret == "" {
		// Ephemeral secret: tokens stop validating across restarts, which
		// is acceptable for dev but must be configured in production.
		secret = generateSecret()
		log.Warn("auth.token_secret not configured, generated an ephemeral one")
	}
	return &AuthService{
		backend: backend,
		cache:   l1,
		cfg:     cfg,
		secret:  []byte(secret),
		now:     time.Now,
		log:     log,
	}
}

// Register creates a new account with a bcrypt-hashed password and a
// 7-day trial license.
func (s *AuthService) Register(ctx context.Context, req *account.CreateRequest) (*account.Account, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	email := normalizeEmail(req.Email)
	if _, err := s.uidForEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acc := &account.Account{
		UID:          uuid.NewString(),
		Email:        email,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}

	if err := s.putAccount(ctx, acc); err != nil {
		return nil, err
	}
	if err := s.putEmailIndex(ctx, email, acc.UID); err != nil {
		return nil, err
	}

	lic := account.NewTrialLicense(s.now())
	if _, err := s.backend.Set(ctx, docstore.LicensePath(acc.UID), mustJSON(lic), acc.UID); err != nil {
		return nil, fmt.Errorf("create trial license: %w", err)
	}

	s.log.Info("account created", "uid", acc.UID, "email", acc.Email, "trial_days", account.TrialDays)
	return acc, nil
}

// Login authenticates an account, ensures its license exists, applies the
// plan-expiry rules, and returns a signed access token. Blocked or expired
// licenses refuse login, mirroring the original app's behavior.
func (s *AuthService) Login(ctx context.Context, req account.LoginRequest) (*LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	acc, err := s.GetAccountByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", domain.ErrNotAuthenticated)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrNotAuthenticated)
	}

	lic, err := s.EnsureLicense(ctx, acc.UID)
	if err != nil {
		return nil, err
	}

	if changed := lic.Expire(s.now()); changed {
		lic.LastModified = s.now()
		lic.ModifiedBy = "system"
		if _, err := s.backend.Set(ctx, docstore.LicensePath(acc.UID), mustJSON(lic), "system"); err != nil {
			return nil, fmt.Errorf("persist license expiry: %w", err)
		}
		s.log.Warn("license expired on login", "uid", acc.UID, "status", lic.Status)
	}

	if !lic.Usable() {
		return nil, fmt.Errorf("%w: account is %s", domain.ErrForbidden, lic.Status)
	}

	acc.LastSeenAt = s.now()
	if err := s.putAccount(ctx, acc); err != nil {
		s.log.Warn("failed to stamp last seen", "uid", acc.UID, "error", err)
	}

	token, err := s.signToken(acc)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &LoginResponse{
		AccessToken: token,
		ExpiresIn:   int(s.cfg.TokenExpiry.Seconds()),
		Account:     *acc,
		License:     *lic,
	}, nil
}

// ValidateToken verifies a signed token and returns its claims.
func (s *AuthService) ValidateToken(tokenStr string) (*TokenClaims, error) {
	parts := strings.SplitN(tokenStr, ".", 3)
	if len(parts) != 3 {
		return nil, errors.New("malformed token")
	}

	signingInput := parts[0] + "." + parts[1]
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signingInput))
	expectedSig := base64URLEncode(mac.Sum(nil))

	if !hmac.Equal([]byte(parts[2]), []byte(expectedSig)) {
		return nil, errors.New("invalid signature")
	}

	payload, err := base64URLDecode(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	var claims TokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("unmarshal claims: %w", err)
	}

	if s.now().Unix() > claims.Expiry {
		return nil, errors.New("token expired")
	}
	if claims.Audience != tokenAudience {
		return nil, errors.New("invalid token audience")
	}
	if claims.Issuer != tokenIssuer {
		return nil, errors.New("invalid token issuer")
	}

	return &claims, nil
}

// Principal converts validated claims back into a principal.
func (c *TokenClaims) Principal() *principal.Principal {
	return &principal.Principal{ID: c.UID, Email: c.Email, Name: c.Name, IsAdmin: c.IsAdmin}
}

// GetAccount loads the account record for a uid.
func (s *AuthService) GetAccount(ctx context.Context, uid string) (*account.Account, error) {
	doc, err := s.backend.Get(ctx, docstore.AccountPath(uid))
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", uid, err)
	}
	var rec accountRecord
	if err := json.Unmarshal(doc.Data, &rec); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", uid, err)
	}
	acc := rec.Account
	acc.PasswordHash = rec.PasswordHash
	return &acc, nil
}

// GetAccountByEmail resolves an account through the email index.
func (s *AuthService) GetAccountByEmail(ctx context.Context, email string) (*account.Account, error) {
	uid, err := s.uidForEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return s.GetAccount(ctx, uid)
}

// EnsureLicense returns the account's license, creating the trial license
// if the sub-resource was never written (first-login materialization).
func (s *AuthService) EnsureLicense(ctx context.Context, uid string) (*account.License, error) {
	doc, err := s.backend.Get(ctx, docstore.LicensePath(uid))
	if err == nil {
		var lic account.License
		if err := json.Unmarshal(doc.Data, &lic); err != nil {
			return nil, fmt.Errorf("decode license %s: %w", uid, err)
		}
		return &lic, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get license %s: %w", uid, err)
	}

	lic := account.NewTrialLicense(s.now())
	if _, err := s.backend.Set(ctx, docstore.LicensePath(uid), mustJSON(lic), uid); err != nil {
		return nil, fmt.Errorf("materialize trial license: %w", err)
	}
	s.log.Info("trial license materialized", "uid", uid)
	return &lic, nil
}

// SeedAdmin creates or promotes an admin account, used by the bootstrap
// subcommand.
func (s *AuthService) SeedAdmin(ctx context.Context, email, displayName, password string) (*account.Account, error) {
	existing, err := s.GetAccountByEmail(ctx, email)
	if err == nil {
		existing.IsAdmin = true
		if err := s.putAccount(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	acc, err := s.Register(ctx, &account.CreateRequest{
		Email:       email,
		DisplayName: displayName,
		Password:    password,
	})
	if err != nil {
		return nil, err
	}
	acc.IsAdmin = true
	if err := s.putAccount(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// --- internals ---

type accountRecord struct {
	account.Account
	PasswordHash string `json:"password_hash"`
}

func (s *AuthService) putAccount(ctx context.Context, acc *account.Account) error {
	rec := accountRecord{Account: *acc, PasswordHash: acc.PasswordHash}
	if _, err := s.backend.Set(ctx, docstore.AccountPath(acc.UID), mustJSON(rec), acc.UID); err != nil {
		return fmt.Errorf("put account %s: %w", acc.UID, err)
	}
	return nil
}

type emailIndex struct {
	UID string `json:"uid"`
}

func (s *AuthService) putEmailIndex(ctx context.Context, email, uid string) error {
	if _, err := s.backend.Set(ctx, emailIndexPath(email), mustJSON(emailIndex{UID: uid}), uid); err != nil {
		return fmt.Errorf("put email index: %w", err)
	}
	return nil
}

func (s *AuthService) uidForEmail(ctx context.Context, email string) (string, error) {
	key := "auth:email:" + email
	if s.cache != nil {
		if v, ok, _ := s.cache.Get(ctx, key); ok {
			return string(v), nil
		}
	}

	doc, err := s.backend.Get(ctx, emailIndexPath(email))
	if err != nil {
		return "", err
	}
	var idx emailIndex
	if err := json.Unmarshal(doc.Data, &idx); err != nil {
		return "", fmt.Errorf("decode email index: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, []byte(idx.UID), emailIndexTTL)
	}
	return idx.UID, nil
}

func emailIndexPath(email string) string {
	return "indexes/emails/" + email
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) signToken(acc *account.Account) (string, error) {
	now := s.now()
	claims := TokenClaims{
		UID:      acc.UID,
		Email:    acc.Email,
		Name:     acc.DisplayName,
		IsAdmin:  acc.IsAdmin,
		IssuedAt: now.Unix(),
		Expiry:   now.Add(s.cfg.TokenExpiry).Unix(),
		JTI:      uuid.NewString(),
		Audience: tokenAudience,
		Issuer:   tokenIssuer,
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}

	signingInput := tokenHeader + "." + base64URLEncode(payload)
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signingInput))
	return signingInput + "." + base64URLEncode(mac.Sum(nil)), nil
}

func base64URLEncode(data []byte) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString(data), "=")
}

func base64URLDecode(s string) ([]byte, error) {
	switch len(s) % 4 {
	case 2:
		s += "=="
	case 3:
		s += "="
	}
	return base64.URLEncoding.DecodeString(s)
}

// generateSecret produces a random hex secret, used when none is configured.
func generateSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
