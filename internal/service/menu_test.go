package service

import (
	"context"
	"errors"
	"testing"

	"github.com/docegestao/docegestao/internal/domain"
	"github.com/docegestao/docegestao/internal/domain/menu"
	"github.com/docegestao/docegestao/internal/domain/quote"
)

func TestMenuGetMaterializesStarterMenu(t *testing.T) {
	store, backend := newTestSyncStore()
	svc := NewMenuService(store, testLogger())
	ctx := context.Background()

	m, err := svc.Get(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if m.Settings.Title != "Doces da Ana" {
		t.Fatalf("expected starter menu, got %q", m.Settings.Title)
	}
	if backend.Len() != 1 {
		t.Fatalf("starter menu must be persisted, got %d documents", backend.Len())
	}
}

func TestMenuUpdateRoundTrip(t *testing.T) {
	store, _ := newTestSyncStore()
	svc := NewMenuService(store, testLogger())
	ctx := context.Background()

	m, err := svc.Get(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	m.Settings.Title = "Bolos da Bia"
	m.Items = append(m.Items, menu.Item{
		ID: "i1", CategoryID: m.Categories[0].ID, Name: "Bolo de Noiva", Price: 250, Visible: true,
	})

	if _, err := svc.Update(ctx, "tenant-1", m); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := svc.Get(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Settings.Title != "Bolos da Bia" || len(got.Items) != 1 {
		t.Fatalf("update not persisted: %+v", got)
	}
}

func TestMenuUpdateRejectsInvalidDocument(t *testing.T) {
	store, _ := newTestSyncStore()
	svc := NewMenuService(store, testLogger())

	bad := &menu.Document{} // missing title
	if _, err := svc.Update(context.Background(), "tenant-1", bad); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestMenuPublicHidesInvisibleItems(t *testing.T) {
	store, _ := newTestSyncStore()
	svc := NewMenuService(store, testLogger())
	ctx := context.Background()

	m, err := svc.Get(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	m.Items = []menu.Item{
		{ID: "i1", CategoryID: m.Categories[0].ID, Name: "Na Vitrine", Price: 10, Visible: true},
		{ID: "i2", CategoryID: m.Categories[0].ID, Name: "Fora de Linha", Price: 10, Visible: false},
	}
	if _, err := svc.Update(ctx, "tenant-1", m); err != nil {
		t.Fatalf("update: %v", err)
	}

	pub, err := svc.Public(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("public: %v", err)
	}
	if len(pub.Items) != 1 || pub.Items[0].ID != "i1" {
		t.Fatalf("expected only visible items, got %+v", pub.Items)
	}
}

func TestQuoteBuildUsesLiveMenu(t *testing.T) {
	store, _ := newTestSyncStore()
	menus := NewMenuService(store, testLogger())
	quotes := NewQuoteService(menus, testLogger())
	ctx := context.Background()

	m, err := menus.Get(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	m.Items = []menu.Item{
		{ID: "bolo", CategoryID: m.Categories[0].ID, Name: "Bolo de Chocolate", Price: 80, Visible: true},
	}
	if _, err := menus.Update(ctx, "tenant-1", m); err != nil {
		t.Fatalf("update: %v", err)
	}

	q, err := quotes.Build(ctx, "tenant-1", quote.Request{
		Client:     "Maria",
		Selections: []quote.Selection{{ItemID: "bolo", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if q.Total != 160 {
		t.Fatalf("expected total 160, got %v", q.Total)
	}
}
