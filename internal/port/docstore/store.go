// Package docstore defines the port for the path-addressed document backend
// and its change feed. Documents live in a hierarchical namespace; every
// tenant-owned document is reachable only through the tenant's own prefix,
// so no cross-tenant query path exists by construction.
package docstore

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Document is a stored JSON document plus its server-assigned audit fields.
type Document struct {
	Path       string          `json:"path"`
	Data       json.RawMessage `json:"data"`
	UpdatedAt  time.Time       `json:"updated_at"`
	ModifiedBy string          `json:"modified_by"`
}

// Key returns the last path segment (the resource key).
func (d Document) Key() string {
	idx := strings.LastIndexByte(d.Path, '/')
	if idx < 0 {
		return d.Path
	}
	return d.Path[idx+1:]
}

// Event is a change notification for a single document write or delete,
// delivered in write order per (tenant, resource).
type Event struct {
	Doc     Document `json:"doc"`
	Deleted bool     `json:"deleted"`
}

// Backend is the persistence port. Set performs a top-level field merge
// into any existing document (last-writer-wins at document granularity)
// and stamps UpdatedAt server-side along with the acting principal.
type Backend interface {
	// Get returns the document at path, or domain.ErrNotFound.
	Get(ctx context.Context, path string) (*Document, error)
	// Set merge-writes data at path and returns the stamped document.
	Set(ctx context.Context, path string, data json.RawMessage, modifiedBy string) (*Document, error)
	// Delete removes the document at path. Missing documents are not an error.
	Delete(ctx context.Context, path string) error
	// List returns all documents whose path starts with prefix, path-ordered.
	List(ctx context.Context, prefix string) ([]Document, error)
}

// Handler receives change events for a subscribed (tenant, resource).
type Handler func(ev Event)

// ErrHandler receives transport errors on a subscribed channel. The feed
// does not retry; re-subscribing is the caller's responsibility.
type ErrHandler func(err error)

// Feed is the push-notification port. Updates for one (tenant, resource)
// arrive in write order; there is no ordering guarantee across resources.
type Feed interface {
	// Publish emits a change event to subscribers of the document's scope.
	Publish(ctx context.Context, tenant, resource string, ev Event) error
	// Subscribe registers handlers for all keys under (tenant, resource)
	// and returns an idempotent cancel function. errFn may be nil.
	Subscribe(ctx context.Context, tenant, resource string, fn Handler, errFn ErrHandler) (func(), error)
}

// TenantPath builds the canonical per-tenant document path
// tenants/{tenant}/{resource}/{key}.
func TenantPath(tenant, resource, key string) string {
	return "tenants/" + tenant + "/" + resource + "/" + key
}

// TenantPrefix builds the listing prefix for all keys of a tenant resource.
func TenantPrefix(tenant, resource string) string {
	return "tenants/" + tenant + "/" + resource + "/"
}

// AccountPath is where the account record for a tenant lives.
func AccountPath(uid string) string {
	return "accounts/" + uid
}

// LicensePath is where the nested license sub-resource for a tenant lives.
func LicensePath(uid string) string {
	return "accounts/" + uid + "/license"
}

// AccountsPrefix lists all account records (admin panel).
const AccountsPrefix = "accounts/"
