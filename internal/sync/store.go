package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/docegestao/docegestao/internal/domain"
	"github.com/docegestao/docegestao/internal/port/docstore"
)

// DefaultFunc produces the well-known default document for a resource type,
// returned (and persisted) when a tenant reads a resource it never wrote.
type DefaultFunc func() any

// Store reads and writes documents scoped under a tenant identifier and
// publishes every successful write to the change feed.
type Store struct {
	backend  docstore.Backend
	feed     docstore.Feed
	defaults map[string]DefaultFunc
	group    singleflight.Group
	log      *slog.Logger
}

// NewStore creates a tenant-scoped store over the given backend and feed.
func NewStore(backend docstore.Backend, feed docstore.Feed, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		backend:  backend,
		feed:     feed,
		defaults: make(map[string]DefaultFunc),
		log:      log,
	}
}

// RegisterDefault installs the default document for a resource type.
func (s *Store) RegisterDefault(resource string, fn DefaultFunc) {
	s.defaults[resource] = fn
}

// Load returns the document at tenants/{tenant}/{resource}/{key}. A missing
// document with a registered default is materialized: the default is
// persisted on first read so subsequent loads are deterministic, then
// returned. A missing document without a default is domain.ErrNotFound.
func (s *Store) Load(ctx context.Context, tenant, resource, key string) (*docstore.Document, error) {
	if tenant == "" {
		return nil, fmt.Errorf("load %s/%s: %w", resource, key, domain.ErrNotAuthenticated)
	}

	path := docstore.TenantPath(tenant, resource, key)
	doc, err := s.backend.Get(ctx, path)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load %s: %w: %w", path, domain.ErrStoreUnavailable, err)
	}

	fn, ok := s.defaults[resource]
	if !ok {
		return nil, fmt.Errorf("load %s: %w", path, domain.ErrNotFound)
	}

	// First read materializes the default exactly once per process even
	// under concurrent loads.
	v, err, _ := s.group.Do(path, func() (any, error) {
		return s.materialize(ctx, tenant, resource, key, fn)
	})
	if err != nil {
		return nil, err
	}
	return v.(*docstore.Document), nil
}

// LoadAll returns every document under tenants/{tenant}/{resource}/.
func (s *Store) LoadAll(ctx context.Context, tenant, resource string) ([]docstore.Document, error) {
	if tenant == "" {
		return nil, fmt.Errorf("load all %s: %w", resource, domain.ErrNotAuthenticated)
	}
	docs, err := s.backend.List(ctx, docstore.TenantPrefix(tenant, resource))
	if err != nil {
		return nil, fmt.Errorf("load all %s: %w: %w", resource, domain.ErrStoreUnavailable, err)
	}
	return docs, nil
}

// Save merge-writes the document at tenants/{tenant}/{resource}/{key},
// stamping the server-assigned modification time plus the acting tenant,
// and notifies the change feed. Last writer wins at document granularity.
func (s *Store) Save(ctx context.Context, tenant, resource, key string, doc any) (*docstore.Document, error) {
	if tenant == "" {
		return nil, fmt.Errorf("save %s/%s: %w", resource, key, domain.ErrNotAuthenticated)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("save %s/%s: marshal: %w", resource, key, err)
	}

	path := docstore.TenantPath(tenant, resource, key)
	stored, err := s.backend.Set(ctx, path, data, tenant)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w: %w", path, domain.ErrStoreUnavailable, err)
	}

	s.publish(ctx, tenant, resource, docstore.Event{Doc: *stored})
	return stored, nil
}

// Delete removes the document and notifies the change feed.
func (s *Store) Delete(ctx context.Context, tenant, resource, key string) error {
	if tenant == "" {
		return fmt.Errorf("delete %s/%s: %w", resource, key, domain.ErrNotAuthenticated)
	}

	path := docstore.TenantPath(tenant, resource, key)
	if err := s.backend.Delete(ctx, path); err != nil {
		return fmt.Errorf("delete %s: %w: %w", path, domain.ErrStoreUnavailable, err)
	}

	s.publish(ctx, tenant, resource, docstore.Event{
		Doc:     docstore.Document{Path: path},
		Deleted: true,
	})
	return nil
}

func (s *Store) materialize(ctx context.Context, tenant, resource, key string, fn DefaultFunc) (*docstore.Document, error) {
	doc, err := s.Save(ctx, tenant, resource, key, fn())
	if err != nil {
		return nil, fmt.Errorf("materialize default: %w", err)
	}
	s.log.Info("materialized default document", "tenant", tenant, "resource", resource, "key", key)
	return doc, nil
}

// publish failures must not fail the write: the document is durable, only
// the notification was lost.
func (s *Store) publish(ctx context.Context, tenant, resource string, ev docstore.Event) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, tenant, resource, ev); err != nil {
		s.log.Warn("change feed publish failed", "tenant", tenant, "resource", resource, "error", err)
	}
}
