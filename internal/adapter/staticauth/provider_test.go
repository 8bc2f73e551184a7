package staticauth

import (
	"context"
	"errors"
	"testing"

	"github.com/docegestao/docegestao/internal/domain"
	"github.com/docegestao/docegestao/internal/domain/principal"
)

func TestCurrentPrincipal(t *testing.T) {
	ctx := context.Background()

	signedOut := New(nil)
	if _, err := signedOut.CurrentPrincipal(ctx); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	ana := &principal.Principal{ID: "u1", Email: "ana@doces.com"}
	p, err := New(ana).CurrentPrincipal(ctx)
	if err != nil {
		t.Fatalf("current principal: %v", err)
	}
	if p.ID != "u1" {
		t.Fatalf("expected u1, got %q", p.ID)
	}
}

func TestListenersHearChanges(t *testing.T) {
	prov := New(nil)

	var got []*principal.Principal
	cancel := prov.OnPrincipalChanged(func(p *principal.Principal) {
		got = append(got, p)
	})

	ana := &principal.Principal{ID: "u1"}
	prov.SetPrincipal(ana)
	if err := prov.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}

	if len(got) != 2 || got[0] != ana || got[1] != nil {
		t.Fatalf("expected [ana, nil], got %v", got)
	}

	// After cancel no further notifications arrive, and cancelling twice
	// is harmless.
	cancel()
	cancel()
	prov.SetPrincipal(ana)
	if len(got) != 2 {
		t.Fatalf("listener fired after cancel, got %d notifications", len(got))
	}
}

func TestSignOutClearsSession(t *testing.T) {
	prov := New(&principal.Principal{ID: "u1"})
	if err := prov.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, err := prov.CurrentPrincipal(context.Background()); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated after sign out, got %v", err)
	}
}
