package booking

import "github.com/google/uuid"

// MaxItemQuantity is the largest quantity accepted for a single menu item.
const MaxItemQuantity = 10000

// RequestedItem is a client's selection of a menu item.
type RequestedItem struct {
	CatalogItemID uuid.UUID `json:"catalog_item_id"`
	Quantity      int       `json:"quantity"`
}

// LineItem is a priced menu selection. UnitPriceCents is the catalog price at
// booking time and is never re-derived from the live catalog.
type LineItem struct {
	CatalogItemID  uuid.UUID `json:"catalog_item_id"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
}

// TotalCents returns quantity × unit price.
func (li LineItem) TotalCents() int64 {
	return int64(li.Quantity) * li.UnitPriceCents
}

// SumLineItems returns the grand total of the given line items in cents.
func SumLineItems(items []LineItem) int64 {
	var total int64
	for _, li := range items {
		total += li.TotalCents()
	}
	return total
}
