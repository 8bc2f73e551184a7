package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/docegestao/docegestao/internal/domain/quote"
)

// QuoteService prices orçamentos against the tenant's live menu.
type QuoteService struct {
	menus *MenuService
	now   func() time.Time
	log   *slog.Logger
}

// NewQuoteService creates a QuoteService.
func NewQuoteService(menus *MenuService, log *slog.Logger) *QuoteService {
	if log == nil {
		log = slog.Default()
	}
	return &QuoteService{menus: menus, now: time.Now, log: log}
}

// Build computes a quote for the request. Quotes are never persisted; they
// are priced against the menu as it stands at call time.
func (s *QuoteService) Build(ctx context.Context, tenant string, req quote.Request) (*quote.Quote, error) {
	m, err := s.menus.Get(ctx, tenant)
	if err != nil {
		return nil, err
	}
	return quote.Build(m, req, s.now())
}
