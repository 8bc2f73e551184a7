package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docegestao/docegestao/internal/domain"
	"github.com/docegestao/docegestao/internal/domain/order"
)

func TestOrderSaveAssignsIDAndTimestamps(t *testing.T) {
	store, _ := newTestSyncStore()
	svc := NewOrderService(store, testLogger())
	ctx := context.Background()

	saved, err := svc.Save(ctx, "tenant-1", &order.Order{
		Client:  "Maria",
		Product: "Bolo de Chocolate",
		Date:    "2026-09-15",
		Value:   120,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected a server-assigned id")
	}
	if saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
		t.Fatal("expected created_at and updated_at to be stamped")
	}
	if saved.Status != order.StatusPending {
		t.Fatalf("expected default status pendente, got %q", saved.Status)
	}

	got, err := svc.Get(ctx, "tenant-1", saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Client != "Maria" || got.Product != "Bolo de Chocolate" {
		t.Fatalf("unexpected stored order: %+v", got)
	}
}

func TestOrderUpdateKeepsCreatedAt(t *testing.T) {
	store, _ := newTestSyncStore()
	svc := NewOrderService(store, testLogger())
	ctx := context.Background()

	created := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return created }

	saved, err := svc.Save(ctx, "tenant-1", &order.Order{
		Client: "Maria", Product: "Torta", Date: "2026-09-15",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	later := created.Add(48 * time.Hour)
	svc.now = func() time.Time { return later }

	saved.Status = order.StatusReady
	if _, err := svc.Save(ctx, "tenant-1", saved); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := svc.Get(ctx, "tenant-1", saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at must survive updates, got %v", got.CreatedAt)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Fatalf("updated_at must move, got %v", got.UpdatedAt)
	}
	if got.Status != order.StatusReady {
		t.Fatalf("expected status pronto, got %q", got.Status)
	}
}

func TestOrderListSortsByDateAscending(t *testing.T) {
	store, _ := newTestSyncStore()
	svc := NewOrderService(store, testLogger())
	ctx := context.Background()

	for _, tc := range []struct{ client, date string }{
		{"C", "2026-12-24"},
		{"A", "2026-09-01"},
		{"B", "2026-10-15"},
	} {
		if _, err := svc.Save(ctx, "tenant-1", &order.Order{
			Client: tc.client, Product: "Bolo", Date: tc.date,
		}); err != nil {
			t.Fatalf("save %s: %v", tc.client, err)
		}
	}

	orders, err := svc.List(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(orders))
	}
	for i, want := range []string{"A", "B", "C"} {
		if orders[i].Client != want {
			t.Fatalf("position %d: expected client %s, got %s", i, want, orders[i].Client)
		}
	}
}

func TestOrderSaveRejectsInvalid(t *testing.T) {
	store, _ := newTestSyncStore()
	svc := NewOrderService(store, testLogger())

	_, err := svc.Save(context.Background(), "tenant-1", &order.Order{Product: "Bolo", Date: "2026-09-15"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestOrderDelete(t *testing.T) {
	store, _ := newTestSyncStore()
	svc := NewOrderService(store, testLogger())
	ctx := context.Background()

	saved, err := svc.Save(ctx, "tenant-1", &order.Order{
		Client: "Maria", Product: "Bolo", Date: "2026-09-15",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := svc.Delete(ctx, "tenant-1", saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, "tenant-1", saved.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestOrdersAreTenantScoped(t *testing.T) {
	store, _ := newTestSyncStore()
	svc := NewOrderService(store, testLogger())
	ctx := context.Background()

	if _, err := svc.Save(ctx, "tenant-a", &order.Order{
		Client: "Maria", Product: "Bolo", Date: "2026-09-15",
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	orders, err := svc.List(ctx, "tenant-b")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("tenant-b must not see tenant-a orders, got %d", len(orders))
	}
}
