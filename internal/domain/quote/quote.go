// Package quote builds orçamentos (price quotes) from a tenant's live menu.
package quote

import (
	"fmt"
	"math"
	"time"

	"github.com/docegestao/docegestao/internal/domain"
	"github.com/docegestao/docegestao/internal/domain/menu"
)

// Selection is one requested item with a quantity.
type Selection struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// Request is the input for building a quote.
type Request struct {
	Client     string      `json:"client"`
	Notes      string      `json:"notes,omitempty"`
	Selections []Selection `json:"selections"`
}

// Line is one priced row of a quote.
type Line struct {
	ItemID    string  `json:"item_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

// Quote is a computed orçamento. Quotes are ephemeral: they are priced
// against the menu as it stands and never persisted.
type Quote struct {
	Client    string    `json:"client"`
	Notes     string    `json:"notes,omitempty"`
	Lines     []Line    `json:"lines"`
	Total     float64   `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// Build prices the request against the given menu. Only visible items are
// quotable; unknown or hidden items fail validation.
func Build(doc *menu.Document, req Request, now time.Time) (*Quote, error) {
	if req.Client == "" {
		return nil, fmt.Errorf("%w: client is required", domain.ErrValidation)
	}
	if len(req.Selections) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", domain.ErrValidation)
	}

	q := &Quote{Client: req.Client, Notes: req.Notes, CreatedAt: now}
	for _, sel := range req.Selections {
		if sel.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive for item %q", domain.ErrValidation, sel.ItemID)
		}
		it := doc.Item(sel.ItemID)
		if it == nil || !it.Visible {
			return nil, fmt.Errorf("%w: item %q is not available", domain.ErrValidation, sel.ItemID)
		}
		line := Line{
			ItemID:    it.ID,
			Name:      it.Name,
			UnitPrice: it.Price,
			Quantity:  sel.Quantity,
			Subtotal:  round2(it.Price * float64(sel.Quantity)),
		}
		q.Lines = append(q.Lines, line)
		q.Total = round2(q.Total + line.Subtotal)
	}
	return q, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
