package quote

import (
	"errors"
	"testing"
	"time"

	"github.com/docegestao/docegestao/internal/domain"
	"github.com/docegestao/docegestao/internal/domain/menu"
)

func testMenu() *menu.Document {
	return &menu.Document{
		Settings:   menu.Settings{Title: "Doces da Ana"},
		Categories: []menu.Category{{ID: "1", Name: "Bolos"}},
		Items: []menu.Item{
			{ID: "bolo", CategoryID: "1", Name: "Bolo de Cenoura", Price: 45.50, Visible: true},
			{ID: "brigadeiro", CategoryID: "1", Name: "Brigadeiro", Price: 3.33, Visible: true},
			{ID: "secreto", CategoryID: "1", Name: "Item Oculto", Price: 10, Visible: false},
		},
	}
}

func TestBuildPricesSelections(t *testing.T) {
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	q, err := Build(testMenu(), Request{
		Client: "Maria",
		Selections: []Selection{
			{ItemID: "bolo", Quantity: 1},
			{ItemID: "brigadeiro", Quantity: 3},
		},
	}, now)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(q.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(q.Lines))
	}
	if q.Lines[0].Subtotal != 45.50 {
		t.Fatalf("expected subtotal 45.50, got %v", q.Lines[0].Subtotal)
	}
	// 3 × 3.33 rounds to cents.
	if q.Lines[1].Subtotal != 9.99 {
		t.Fatalf("expected subtotal 9.99, got %v", q.Lines[1].Subtotal)
	}
	if q.Total != 55.49 {
		t.Fatalf("expected total 55.49, got %v", q.Total)
	}
	if !q.CreatedAt.Equal(now) {
		t.Fatalf("expected created_at %v, got %v", now, q.CreatedAt)
	}
}

func TestBuildValidation(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		req  Request
	}{
		{"missing client", Request{Selections: []Selection{{ItemID: "bolo", Quantity: 1}}}},
		{"no selections", Request{Client: "Maria"}},
		{"zero quantity", Request{Client: "Maria", Selections: []Selection{{ItemID: "bolo", Quantity: 0}}}},
		{"unknown item", Request{Client: "Maria", Selections: []Selection{{ItemID: "nope", Quantity: 1}}}},
		{"hidden item", Request{Client: "Maria", Selections: []Selection{{ItemID: "secreto", Quantity: 1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(testMenu(), tt.req, now); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}
