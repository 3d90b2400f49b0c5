package booking

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/platterhub/service-booking/internal/domain"
	"github.com/platterhub/service-booking/internal/domain/catalog"
)

// Quote is the priced result of resolving a menu selection.
type Quote struct {
	LineItems  []LineItem
	TotalCents int64
}

// PricingResolver defines the interface for turning a menu selection into a quote.
type PricingResolver interface {
	// Resolve prices every requested item or fails without a partial result.
	Resolve(ctx context.Context, items []RequestedItem) (Quote, error)
}

// CatalogPricingResolver prices selections at the catalog's current unit prices.
type CatalogPricingResolver struct {
	catalog catalog.Catalog
}

// NewCatalogPricingResolver creates a new CatalogPricingResolver.
func NewCatalogPricingResolver(c catalog.Catalog) *CatalogPricingResolver {
	return &CatalogPricingResolver{catalog: c}
}

// Resolve looks up each item, snapshots its unit price and sums the total.
//
// Errors:
//   - InvalidInput: empty selection, quantity outside [1, MaxItemQuantity]
//     or a total that does not fit in int64 cents
//   - NotFound: item unknown to the catalog
//   - ItemUnavailable: item exists but is not orderable
func (r *CatalogPricingResolver) Resolve(ctx context.Context, items []RequestedItem) (Quote, error) {
	if len(items) == 0 {
		return Quote{}, domain.NewValidationError("at least one menu item is required")
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return Quote{}, domain.NewValidationError(
				fmt.Sprintf("quantity for menu item %s must be a positive integer", it.CatalogItemID))
		}
		if it.Quantity > MaxItemQuantity {
			return Quote{}, domain.NewValidationError(
				fmt.Sprintf("quantity for menu item %s must not exceed %d", it.CatalogItemID, MaxItemQuantity))
		}
	}

	lineItems := make([]LineItem, 0, len(items))
	var total int64
	for _, it := range items {
		entry, err := r.catalog.Lookup(ctx, it.CatalogItemID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return Quote{}, domain.NewNotFoundError("menu item", it.CatalogItemID.String())
			}
			return Quote{}, fmt.Errorf("failed to look up menu item %s: %w", it.CatalogItemID, err)
		}
		if !entry.IsOrderable {
			return Quote{}, domain.NewItemUnavailableError(it.CatalogItemID.String())
		}
		if entry.UnitPriceCents < 0 {
			return Quote{}, fmt.Errorf("menu item %s has a negative price", it.CatalogItemID)
		}
		if entry.UnitPriceCents > 0 && int64(it.Quantity) > math.MaxInt64/entry.UnitPriceCents {
			return Quote{}, domain.NewValidationError(
				fmt.Sprintf("line total for menu item %s is too large", it.CatalogItemID))
		}
		lineTotal := int64(it.Quantity) * entry.UnitPriceCents
		if total > math.MaxInt64-lineTotal {
			return Quote{}, domain.NewValidationError("booking total is too large")
		}
		total += lineTotal

		lineItems = append(lineItems, LineItem{
			CatalogItemID:  it.CatalogItemID,
			Name:           entry.Name,
			Quantity:       it.Quantity,
			UnitPriceCents: entry.UnitPriceCents,
		})
	}

	return Quote{
		LineItems:  lineItems,
		TotalCents: total,
	}, nil
}
