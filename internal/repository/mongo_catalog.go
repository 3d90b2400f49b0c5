package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/domain"
	"github.com/platterhub/service-booking/internal/domain/catalog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type menuItemDocument struct {
	ID             string    `bson:"_id"`
	Name           string    `bson:"name"`
	Description    string    `bson:"description"`
	Category       string    `bson:"category"`
	UnitPriceCents int64     `bson:"unit_price_cents"`
	IsAvailable    bool      `bson:"is_available"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

// MongoCatalog implements catalog.Catalog on the menu_items collection.
type MongoCatalog struct {
	collection *mongo.Collection
}

func NewMongoCatalog(db *mongo.Database) *MongoCatalog {
	return &MongoCatalog{collection: db.Collection("menu_items")}
}

func (c *MongoCatalog) Lookup(ctx context.Context, itemID uuid.UUID) (catalog.Item, error) {
	var doc menuItemDocument
	err := c.collection.FindOne(ctx, bson.M{"_id": itemID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return catalog.Item{}, domain.NewNotFoundError("menu item", itemID.String())
		}
		return catalog.Item{}, fmt.Errorf("cannot get menu item: %w", err)
	}
	return catalog.Item{
		ID:             itemID,
		Name:           doc.Name,
		UnitPriceCents: doc.UnitPriceCents,
		IsOrderable:    doc.IsAvailable,
	}, nil
}

// Upsert inserts or replaces menu items by ID.
func (c *MongoCatalog) Upsert(ctx context.Context, items ...MenuItemModel) error {
	now := time.Now().UTC()
	for _, it := range items {
		doc := menuItemDocument{
			ID:             it.ID.String(),
			Name:           it.Name,
			Description:    it.Description,
			Category:       it.Category,
			UnitPriceCents: it.UnitPriceCents,
			IsAvailable:    it.IsAvailable,
			UpdatedAt:      now,
		}
		_, err := c.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("cannot upsert menu item: %w", err)
		}
	}
	return nil
}
