package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/docegestao/docegestao/internal/domain/order"
	"github.com/docegestao/docegestao/internal/sync"
)

// OrderService manages the tenant's encomendas.
type OrderService struct {
	store *sync.Store
	now   func() time.Time
	log   *slog.Logger
}

// NewOrderService creates an OrderService.
func NewOrderService(store *sync.Store, log *slog.Logger) *OrderService {
	if log == nil {
		log = slog.Default()
	}
	return &OrderService{store: store, now: time.Now, log: log}
}

// List returns all of the tenant's orders, date-ascending (calendar order).
func (s *OrderService) List(ctx context.Context, tenant string) ([]order.Order, error) {
	docs, err := s.store.LoadAll(ctx, tenant, order.ResourceType)
	if err != nil {
		return nil, err
	}

	orders := make([]order.Order, 0, len(docs))
	for _, doc := range docs {
		var o order.Order
		if err := json.Unmarshal(doc.Data, &o); err != nil {
			return nil, fmt.Errorf("decode order %s: %w", doc.Path, err)
		}
		o.ID = doc.Key()
		orders = append(orders, o)
	}

	sort.SliceStable(orders, func(i, j int) bool { return orders[i].Date < orders[j].Date })
	return orders, nil
}

// Get returns one order by id.
func (s *OrderService) Get(ctx context.Context, tenant, id string) (*order.Order, error) {
	doc, err := s.store.Load(ctx, tenant, order.ResourceType, id)
	if err != nil {
		return nil, err
	}
	var o order.Order
	if err := json.Unmarshal(doc.Data, &o); err != nil {
		return nil, fmt.Errorf("decode order %s: %w", id, err)
	}
	o.ID = id
	return &o, nil
}

// Save creates the order when it carries no id (the store assigns one) and
// updates it otherwise. Returns the stored order with its id set.
func (s *OrderService) Save(ctx context.Context, tenant string, o *order.Order) (*order.Order, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	if o.ID == "" {
		o.ID = uuid.NewString()
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	if _, err := s.store.Save(ctx, tenant, order.ResourceType, o.ID, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Delete removes an order. No soft-delete exists for encomendas.
func (s *OrderService) Delete(ctx context.Context, tenant, id string) error {
	return s.store.Delete(ctx, tenant, order.ResourceType, id)
}
