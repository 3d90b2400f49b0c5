package booking

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/domain"
	"github.com/platterhub/service-booking/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCatalog struct {
	items   map[uuid.UUID]catalog.Item
	lookups int
	err     error
}

func (m *mapCatalog) Lookup(_ context.Context, id uuid.UUID) (catalog.Item, error) {
	m.lookups++
	if m.err != nil {
		return catalog.Item{}, m.err
	}
	it, ok := m.items[id]
	if !ok {
		return catalog.Item{}, domain.NewNotFoundError("menu item", id.String())
	}
	return it, nil
}

func TestResolve_SumsSnapshotPrices(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	cat := &mapCatalog{items: map[uuid.UUID]catalog.Item{
		a: {ID: a, Name: "Canapés", UnitPriceCents: 1000, IsOrderable: true},
		b: {ID: b, Name: "Lemonade", UnitPriceCents: 500, IsOrderable: true},
	}}
	resolver := NewCatalogPricingResolver(cat)

	quote, err := resolver.Resolve(context.Background(), []RequestedItem{
		{CatalogItemID: a, Quantity: 2},
		{CatalogItemID: b, Quantity: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2500), quote.TotalCents)
	require.Len(t, quote.LineItems, 2)
	assert.Equal(t, LineItem{CatalogItemID: a, Name: "Canapés", Quantity: 2, UnitPriceCents: 1000}, quote.LineItems[0])
	assert.Equal(t, LineItem{CatalogItemID: b, Name: "Lemonade", Quantity: 1, UnitPriceCents: 500}, quote.LineItems[1])

	// Catalog repricing after the fact does not touch the quote.
	cat.items[a] = catalog.Item{ID: a, UnitPriceCents: 9999, IsOrderable: true}
	assert.Equal(t, int64(1000), quote.LineItems[0].UnitPriceCents)
	assert.Equal(t, int64(2500), SumLineItems(quote.LineItems))
}

func TestResolve_Failures(t *testing.T) {
	ok, off, pricey, half := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	items := map[uuid.UUID]catalog.Item{
		ok:     {ID: ok, UnitPriceCents: 100, IsOrderable: true},
		off:    {ID: off, UnitPriceCents: 100, IsOrderable: false},
		pricey: {ID: pricey, UnitPriceCents: math.MaxInt64 / 2, IsOrderable: true},
		half:   {ID: half, UnitPriceCents: math.MaxInt64/2 + 2, IsOrderable: true},
	}

	tests := []struct {
		name    string
		req     []RequestedItem
		wantErr error
	}{
		{"empty selection", nil, domain.ErrInvalidInput},
		{"zero quantity", []RequestedItem{{CatalogItemID: ok, Quantity: 0}}, domain.ErrInvalidInput},
		{"negative quantity", []RequestedItem{{CatalogItemID: ok, Quantity: -3}}, domain.ErrInvalidInput},
		{"unknown item", []RequestedItem{{CatalogItemID: ok, Quantity: 1}, {CatalogItemID: uuid.New(), Quantity: 1}}, domain.ErrNotFound},
		{"quantity above maximum", []RequestedItem{{CatalogItemID: ok, Quantity: MaxItemQuantity + 1}}, domain.ErrInvalidInput},
		{"wrapping quantity", []RequestedItem{{CatalogItemID: ok, Quantity: 18446744073709552}}, domain.ErrInvalidInput},
		{"line total overflow", []RequestedItem{{CatalogItemID: pricey, Quantity: 3}}, domain.ErrInvalidInput},
		{"sum overflow", []RequestedItem{{CatalogItemID: pricey, Quantity: 1}, {CatalogItemID: half, Quantity: 1}}, domain.ErrInvalidInput},
		{"unavailable item", []RequestedItem{{CatalogItemID: ok, Quantity: 1}, {CatalogItemID: off, Quantity: 1}}, domain.ErrItemUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewCatalogPricingResolver(&mapCatalog{items: items})
			quote, err := resolver.Resolve(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, quote.LineItems)
		})
	}
}

func TestResolve_MaxQuantityAccepted(t *testing.T) {
	a := uuid.New()
	cat := &mapCatalog{items: map[uuid.UUID]catalog.Item{
		a: {ID: a, Name: "Canapés", UnitPriceCents: 1000, IsOrderable: true},
	}}
	quote, err := NewCatalogPricingResolver(cat).Resolve(context.Background(), []RequestedItem{
		{CatalogItemID: a, Quantity: MaxItemQuantity},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(MaxItemQuantity)*1000, quote.TotalCents)
	assert.Equal(t, SumLineItems(quote.LineItems), quote.TotalCents)
}

func TestResolve_QuantityCheckedBeforeLookup(t *testing.T) {
	cat := &mapCatalog{items: map[uuid.UUID]catalog.Item{}}
	_, err := NewCatalogPricingResolver(cat).Resolve(context.Background(), []RequestedItem{
		{CatalogItemID: uuid.New(), Quantity: 1},
		{CatalogItemID: uuid.New(), Quantity: 0},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, cat.lookups)
}

func TestResolve_CatalogOutage(t *testing.T) {
	cat := &mapCatalog{err: errors.New("connection refused")}
	_, err := NewCatalogPricingResolver(cat).Resolve(context.Background(), []RequestedItem{
		{CatalogItemID: uuid.New(), Quantity: 1},
	})
	require.Error(t, err)
	_, isDomain := domain.CodeOf(err)
	assert.False(t, isDomain)
}
