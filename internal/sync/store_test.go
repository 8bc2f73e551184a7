package sync

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/docegestao/docegestao/internal/adapter/memfeed"
	"github.com/docegestao/docegestao/internal/adapter/memstore"
	"github.com/docegestao/docegestao/internal/domain"
	"github.com/docegestao/docegestao/internal/port/docstore"
)

func newTestStore() (*Store, *memstore.Store, *memfeed.Feed) {
	backend := memstore.New()
	feed := memfeed.New()
	return NewStore(backend, feed, nil), backend, feed
}

func TestStoreSaveAndLoad(t *testing.T) {
	s, _, _ := newTestStore()
	ctx := context.Background()

	saved, err := s.Save(ctx, "tenant-1", "orders", "o1", map[string]string{"customer": "Maria"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.UpdatedAt.IsZero() {
		t.Fatal("save must stamp the modification time")
	}
	if saved.ModifiedBy != "tenant-1" {
		t.Fatalf("expected modified_by tenant-1, got %q", saved.ModifiedBy)
	}

	doc, err := s.Load(ctx, "tenant-1", "orders", "o1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(doc.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["customer"] != "Maria" {
		t.Fatalf("expected customer Maria, got %q", got["customer"])
	}
}

func TestStoreLoadMissingWithoutDefault(t *testing.T) {
	s, _, _ := newTestStore()

	_, err := s.Load(context.Background(), "tenant-1", "orders", "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreMaterializesDefaultOnFirstRead(t *testing.T) {
	s, backend, _ := newTestStore()
	s.RegisterDefault("menu", func() any {
		return map[string]string{"business_name": "Doces da Ana"}
	})

	ctx := context.Background()
	doc, err := s.Load(ctx, "tenant-1", "menu", "default")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal(doc.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["business_name"] != "Doces da Ana" {
		t.Fatalf("expected default document, got %v", got)
	}

	// The default is persisted, not just returned.
	if backend.Len() != 1 {
		t.Fatalf("expected 1 persisted document, got %d", backend.Len())
	}

	// A second load sees the stored copy.
	if _, err := s.Load(ctx, "tenant-1", "menu", "default"); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if backend.Len() != 1 {
		t.Fatalf("materialization must be idempotent, got %d documents", backend.Len())
	}
}

func TestStoreMaterializationIsPerTenant(t *testing.T) {
	s, _, _ := newTestStore()
	s.RegisterDefault("menu", func() any {
		return map[string]string{"business_name": "Doces da Ana"}
	})
	ctx := context.Background()

	if _, err := s.Load(ctx, "tenant-a", "menu", "default"); err != nil {
		t.Fatalf("tenant-a load: %v", err)
	}
	if _, err := s.Save(ctx, "tenant-a", "menu", "default", map[string]string{"business_name": "Bolos da Bia"}); err != nil {
		t.Fatalf("tenant-a save: %v", err)
	}

	// tenant-b still gets the pristine default.
	doc, err := s.Load(ctx, "tenant-b", "menu", "default")
	if err != nil {
		t.Fatalf("tenant-b load: %v", err)
	}
	var got map[string]string
	_ = json.Unmarshal(doc.Data, &got)
	if got["business_name"] != "Doces da Ana" {
		t.Fatalf("tenant-b must not see tenant-a's data, got %v", got)
	}
}

func TestStoreRejectsEmptyTenant(t *testing.T) {
	s, _, _ := newTestStore()
	ctx := context.Background()

	if _, err := s.Load(ctx, "", "menu", "default"); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("load: expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := s.Save(ctx, "", "menu", "default", map[string]string{}); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("save: expected ErrNotAuthenticated, got %v", err)
	}
	if err := s.Delete(ctx, "", "menu", "default"); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("delete: expected ErrNotAuthenticated, got %v", err)
	}
}

func TestStoreSavePublishesChangeEvent(t *testing.T) {
	s, _, feed := newTestStore()
	ctx := context.Background()

	var mu sync.Mutex
	var events []docstore.Event
	cancel, err := feed.Subscribe(ctx, "tenant-1", "orders", func(ev docstore.Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}, nil)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if _, err := s.Save(ctx, "tenant-1", "orders", "o1", map[string]string{"customer": "Maria"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Delete(ctx, "tenant-1", "orders", "o1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Deleted {
		t.Fatal("first event must be a write")
	}
	if !events[1].Deleted {
		t.Fatal("second event must be a delete")
	}
}

func TestStoreLoadAllScopesToTenant(t *testing.T) {
	s, _, _ := newTestStore()
	ctx := context.Background()

	for _, tc := range []struct{ tenant, key string }{
		{"tenant-a", "o1"},
		{"tenant-a", "o2"},
		{"tenant-b", "o3"},
	} {
		if _, err := s.Save(ctx, tc.tenant, "orders", tc.key, map[string]string{"id": tc.key}); err != nil {
			t.Fatalf("save %s/%s: %v", tc.tenant, tc.key, err)
		}
	}

	docs, err := s.LoadAll(ctx, "tenant-a", "orders")
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents for tenant-a, got %d", len(docs))
	}
	for _, d := range docs {
		if d.Key() == "o3" {
			t.Fatal("tenant-a listing must not contain tenant-b documents")
		}
	}
}
