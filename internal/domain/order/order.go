// Package order defines the encomenda (customer order) domain model.
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/docegestao/docegestao/internal/domain"
)

// ResourceType is the orders resource type segment in the tenant namespace.
const ResourceType = "orders"

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending   Status = "pendente"
	StatusReady     Status = "pronto"
	StatusDelivered Status = "entregue"
)

// ValidStatuses is the set of all valid order statuses.
var ValidStatuses = map[Status]bool{
	StatusPending:   true,
	StatusReady:     true,
	StatusDelivered: true,
}

// Order is one encomenda on the tenant's calendar. Date is the calendar day
// the order is due, in YYYY-MM-DD form.
type Order struct {
	ID        string    `json:"id"`
	Client    string    `json:"client"`
	Product   string    `json:"product"`
	Date      string    `json:"date"`
	Value     float64   `json:"value"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Validate checks required fields and value ranges.
func (o *Order) Validate() error {
	if strings.TrimSpace(o.Client) == "" {
		return fmt.Errorf("%w: client is required", domain.ErrValidation)
	}
	if strings.TrimSpace(o.Product) == "" {
		return fmt.Errorf("%w: product is required", domain.ErrValidation)
	}
	if _, err := time.Parse("2006-01-02", o.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrValidation)
	}
	if o.Value < 0 {
		return fmt.Errorf("%w: value must not be negative", domain.ErrValidation)
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	if !ValidStatuses[o.Status] {
		return fmt.Errorf("%w: invalid status %q", domain.ErrValidation, o.Status)
	}
	return nil
}
