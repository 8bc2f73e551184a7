// Package sync implements the per-tenant synchronized document store:
// identity resolution, tenant-scoped load/save with default
// materialization, live subscriptions, local-write suppression, and
// debounced autosave.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/docegestao/docegestao/internal/domain"
	"github.com/docegestao/docegestao/internal/domain/principal"
	"github.com/docegestao/docegestao/internal/port/authprovider"
	"github.com/docegestao/docegestao/internal/port/cache"
)

// DefaultResolveTimeout bounds how long Resolve waits for the auth
// provider to report a signed-in principal.
const DefaultResolveTimeout = 10 * time.Second

const resolverCacheTTL = time.Hour

// Resolver maps the auth provider's session to a stable tenant identifier,
// caching it for the lifetime of the session. One Resolver belongs to one
// session; the cache key carries a per-resolver id so sessions sharing an
// L1 cache never read each other's identity.
type Resolver struct {
	auth     authprovider.Provider
	cache    cache.Cache
	cacheKey string
	timeout  time.Duration
	group    singleflight.Group
	log      *slog.Logger
}

// NewResolver creates a Resolver. cache may be nil; l1 is only an
// optimization over the provider lookup. A non-positive timeout falls back
// to DefaultResolveTimeout.
func NewResolver(auth authprovider.Provider, l1 cache.Cache, timeout time.Duration, log *slog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		auth:     auth,
		cache:    l1,
		cacheKey: "identity:tenant:" + uuid.NewString(),
		timeout:  timeout,
		log:      log,
	}
}

// Resolve returns the current tenant id, suspending until the auth
// provider reports a principal or the timeout elapses. A timeout yields
// domain.ErrNotAuthenticated: callers must redirect to login, not retry.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if r.cache != nil {
		if cached, ok, _ := r.cache.Get(ctx, r.cacheKey); ok {
			return string(cached), nil
		}
	}

	// Concurrent callers share one provider wait.
	v, err, _ := r.group.Do(r.cacheKey, func() (any, error) {
		return r.resolveSlow(ctx)
	})
	if err != nil {
		return "", err
	}

	id := v.(string)
	if r.cache != nil {
		_ = r.cache.Set(ctx, r.cacheKey, []byte(id), resolverCacheTTL)
	}
	return id, nil
}

// Invalidate drops the cached tenant id (sign-out, principal change).
func (r *Resolver) Invalidate(ctx context.Context) {
	if r.cache != nil {
		_ = r.cache.Delete(ctx, r.cacheKey)
	}
}

func (r *Resolver) resolveSlow(ctx context.Context) (string, error) {
	p, err := r.auth.CurrentPrincipal(ctx)
	if err == nil && p != nil {
		return p.ID, nil
	}

	// No principal yet: wait for the provider's change notification.
	arrived := make(chan string, 1)
	cancel := r.auth.OnPrincipalChanged(func(p *principal.Principal) {
		if p != nil {
			select {
			case arrived <- p.ID:
			default:
			}
		}
	})
	defer cancel()

	// The registration above may have raced a sign-in; check once more.
	if p, err := r.auth.CurrentPrincipal(ctx); err == nil && p != nil {
		return p.ID, nil
	}

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case id := <-arrived:
		return id, nil
	case <-timer.C:
		r.log.Warn("identity resolution timed out", "timeout", r.timeout)
		return "", fmt.Errorf("resolve tenant: %w", domain.ErrNotAuthenticated)
	case <-ctx.Done():
		return "", fmt.Errorf("resolve tenant: %w", domain.ErrNotAuthenticated)
	}
}
