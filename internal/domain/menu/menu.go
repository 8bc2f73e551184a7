// Package menu defines the per-tenant menu document (cardápio).
package menu

import (
	"fmt"
	"strings"

	"github.com/docegestao/docegestao/internal/domain"
)

// ResourceType is the menu's resource type segment in the tenant namespace.
const ResourceType = "menu"

// DefaultKey is the resource key of the single menu document per tenant.
const DefaultKey = "default"

// Settings holds the menu's display configuration.
type Settings struct {
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	Contact    string `json:"contact"`
	ThemeColor string `json:"theme_color"`
}

// Category is a named group of menu items. Order within the slice is the
// display order.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Item is a single product on the menu.
type Item struct {
	ID          string  `json:"id"`
	CategoryID  string  `json:"category_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	Visible     bool    `json:"visible"`
	Highlight   bool    `json:"highlight,omitempty"`
}

// Document is the single logical menu document owned by a tenant.
type Document struct {
	Settings   Settings   `json:"settings"`
	Categories []Category `json:"categories"`
	Items      []Item     `json:"items"`
}

// Default returns the menu a tenant gets on first access.
func Default() Document {
	return Document{
		Settings: Settings{
			Title:      "Doces da Ana",
			Subtitle:   "Confeitaria Artesanal & Afeto",
			Contact:    "(11) 99999-9999",
			ThemeColor: "pink",
		},
		Categories: []Category{
			{ID: "1", Name: "Bolos & Tortas"},
			{ID: "2", Name: "Docinhos & Brigadeiros"},
			{ID: "3", Name: "Bebidas & Cafés"},
			{ID: "4", Name: "Especiais & Sazonais"},
		},
		Items: []Item{},
	}
}

// Validate checks referential integrity between items and categories.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Settings.Title) == "" {
		return fmt.Errorf("%w: settings.title is required", domain.ErrValidation)
	}
	cats := make(map[string]bool, len(d.Categories))
	for _, c := range d.Categories {
		if c.ID == "" || strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: category id and name are required", domain.ErrValidation)
		}
		if cats[c.ID] {
			return fmt.Errorf("%w: duplicate category id %q", domain.ErrValidation, c.ID)
		}
		cats[c.ID] = true
	}
	for _, it := range d.Items {
		if it.ID == "" || strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("%w: item id and name are required", domain.ErrValidation)
		}
		if it.Price < 0 {
			return fmt.Errorf("%w: item %q has negative price", domain.ErrValidation, it.Name)
		}
		if !cats[it.CategoryID] {
			return fmt.Errorf("%w: item %q references unknown category %q", domain.ErrValidation, it.Name, it.CategoryID)
		}
	}
	return nil
}

// Item returns the item with the given id, or nil.
func (d *Document) Item(id string) *Item {
	for i := range d.Items {
		if d.Items[i].ID == id {
			return &d.Items[i]
		}
	}
	return nil
}

// Public returns a copy with hidden items removed, suitable for the
// public menu page and the quote builder.
func (d *Document) Public() Document {
	out := Document{Settings: d.Settings, Categories: d.Categories, Items: []Item{}}
	for _, it := range d.Items {
		if it.Visible {
			out.Items = append(out.Items, it)
		}
	}
	return out
}
