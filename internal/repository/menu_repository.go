package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/domain"
	"github.com/platterhub/service-booking/internal/domain/catalog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MenuItemModel is the GORM model for the menu_items table, a local replica
// of the Catalog service's menu.
type MenuItemModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name           string    `gorm:"type:varchar(200);not null"`
	Description    string    `gorm:"type:text"`
	Category       string    `gorm:"type:varchar(50);index"`
	UnitPriceCents int64     `gorm:"not null"`
	IsAvailable    bool      `gorm:"not null;default:true"`
	CreatedAt      time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt      time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (MenuItemModel) TableName() string { return "menu_items" }

// GormCatalog implements catalog.Catalog using GORM.
type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func (c *GormCatalog) Lookup(ctx context.Context, itemID uuid.UUID) (catalog.Item, error) {
	var model MenuItemModel
	if err := c.db.WithContext(ctx).Where("id = ?", itemID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return catalog.Item{}, domain.NewNotFoundError("menu item", itemID.String())
		}
		return catalog.Item{}, fmt.Errorf("failed to look up menu item: %w", err)
	}
	return toCatalogItem(&model), nil
}

// Upsert inserts or replaces menu items by ID.
func (c *GormCatalog) Upsert(ctx context.Context, items ...MenuItemModel) error {
	if len(items) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range items {
		if items[i].CreatedAt.IsZero() {
			items[i].CreatedAt = now
		}
		items[i].UpdatedAt = now
	}
	return c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "category", "unit_price_cents", "is_available", "updated_at"}),
		}).
		Create(&items).Error
}

func toCatalogItem(m *MenuItemModel) catalog.Item {
	return catalog.Item{
		ID:             m.ID,
		Name:           m.Name,
		UnitPriceCents: m.UnitPriceCents,
		IsOrderable:    m.IsAvailable,
	}
}
