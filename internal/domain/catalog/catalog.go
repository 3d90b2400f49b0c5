// Package catalog defines the menu lookup contract consumed when pricing bookings.
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Item is a menu entry as seen at lookup time.
type Item struct {
	ID             uuid.UUID
	Name           string
	UnitPriceCents int64
	IsOrderable    bool
}

// Catalog resolves menu items by ID. Lookup returns a domain NotFound error
// for unknown items.
type Catalog interface {
	Lookup(ctx context.Context, itemID uuid.UUID) (Item, error)
}
