package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/docegestao/docegestao/internal/domain/menu"
	"github.com/docegestao/docegestao/internal/sync"
)

// MenuService manages the per-tenant menu document.
type MenuService struct {
	store *sync.Store
	log   *slog.Logger
}

// NewMenuService creates a MenuService and registers the menu default so
// first reads materialize the original app's starter cardápio.
func NewMenuService(store *sync.Store, log *slog.Logger) *MenuService {
	if log == nil {
		log = slog.Default()
	}
	store.RegisterDefault(menu.ResourceType, func() any { return menu.Default() })
	return &MenuService{store: store, log: log}
}

// Get returns the tenant's menu, materializing the default on first read.
func (s *MenuService) Get(ctx context.Context, tenant string) (*menu.Document, error) {
	doc, err := s.store.Load(ctx, tenant, menu.ResourceType, menu.DefaultKey)
	if err != nil {
		return nil, err
	}
	var m menu.Document
	if err := json.Unmarshal(doc.Data, &m); err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}
	return &m, nil
}

// Update validates and saves the whole menu document (last writer wins).
func (s *MenuService) Update(ctx context.Context, tenant string, m *menu.Document) (*menu.Document, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.Save(ctx, tenant, menu.ResourceType, menu.DefaultKey, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Public returns the tenant's menu with hidden items removed, for the
// public display page and the quote builder.
func (s *MenuService) Public(ctx context.Context, tenant string) (*menu.Document, error) {
	m, err := s.Get(ctx, tenant)
	if err != nil {
		return nil, err
	}
	pub := m.Public()
	return &pub, nil
}
