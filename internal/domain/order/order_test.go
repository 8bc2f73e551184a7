package order

import (
	"errors"
	"testing"

	"github.com/docegestao/docegestao/internal/domain"
)

func TestValidate(t *testing.T) {
	valid := func() Order {
		return Order{
			Client:  "Maria",
			Product: "Bolo de Chocolate",
			Date:    "2026-09-15",
			Value:   120,
			Status:  StatusPending,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Order)
		wantErr bool
	}{
		{"valid order", func(*Order) {}, false},
		{"missing client", func(o *Order) { o.Client = " " }, true},
		{"missing product", func(o *Order) { o.Product = "" }, true},
		{"bad date format", func(o *Order) { o.Date = "15/09/2026" }, true},
		{"negative value", func(o *Order) { o.Value = -5 }, true},
		{"unknown status", func(o *Order) { o.Status = "cancelado" }, true},
		{"ready status", func(o *Order) { o.Status = StatusReady }, false},
		{"delivered status", func(o *Order) { o.Status = StatusDelivered }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid()
			tt.mutate(&o)
			err := o.Validate()
			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateDefaultsEmptyStatus(t *testing.T) {
	o := Order{Client: "Maria", Product: "Torta", Date: "2026-09-15"}
	if err := o.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != StatusPending {
		t.Fatalf("empty status must default to pendente, got %q", o.Status)
	}
}
