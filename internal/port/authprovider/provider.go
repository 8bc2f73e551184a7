// Package authprovider defines the port for the external authentication
// collaborator. The core only consumes principal identity and a
// changed-notification stream; login UI and provider selection live outside.
package authprovider

import (
	"context"

	"github.com/docegestao/docegestao/internal/domain/principal"
)

// Provider exposes the current authenticated principal and change events.
type Provider interface {
	// CurrentPrincipal returns the signed-in principal, or
	// domain.ErrNotAuthenticated when no session exists yet.
	CurrentPrincipal(ctx context.Context) (*principal.Principal, error)
	// OnPrincipalChanged registers a callback fired whenever the signed-in
	// principal changes (sign-in delivers the principal, sign-out delivers
	// nil). The returned cancel is idempotent.
	OnPrincipalChanged(fn func(*principal.Principal)) (cancel func())
	// SignOut terminates the current session.
	SignOut(ctx context.Context) error
}
