// Package staticauth implements the authprovider port for sessions whose
// identity is already established, such as a WebSocket connection opened
// with a validated access token.
package staticauth

import (
	"context"
	"sync"

	"github.com/docegestao/docegestao/internal/domain"
	"github.com/docegestao/docegestao/internal/domain/principal"
)

// Provider holds a principal that may change through SetPrincipal or
// SignOut. A nil principal means no session.
type Provider struct {
	mu        sync.Mutex
	current   *principal.Principal
	listeners map[int]func(*principal.Principal)
	nextID    int
}

// New returns a provider bound to p. Pass nil to start signed out.
func New(p *principal.Principal) *Provider {
	return &Provider{current: p, listeners: make(map[int]func(*principal.Principal))}
}

// CurrentPrincipal implements authprovider.Provider.
func (s *Provider) CurrentPrincipal(ctx context.Context) (*principal.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return s.current, nil
}

// OnPrincipalChanged implements authprovider.Provider.
func (s *Provider) OnPrincipalChanged(fn func(*principal.Principal)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// SetPrincipal swaps the current principal and notifies listeners.
func (s *Provider) SetPrincipal(p *principal.Principal) {
	s.mu.Lock()
	s.current = p
	fns := make([]func(*principal.Principal), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}

// SignOut implements authprovider.Provider.
func (s *Provider) SignOut(ctx context.Context) error {
	s.SetPrincipal(nil)
	return nil
}
