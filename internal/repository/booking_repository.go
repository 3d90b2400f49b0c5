package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/domain"
	bookingDomain "github.com/platterhub/service-booking/internal/domain/booking"
	"gorm.io/gorm"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingNumber   string          `gorm:"uniqueIndex;not null;size:20"`
	ClientID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	WorkerID        *uuid.UUID      `gorm:"type:uuid;index"`
	Status          string          `gorm:"not null;size:30;index"`
	EventDate       time.Time       `gorm:"type:date;not null;index"`
	EventTime       string          `gorm:"not null;size:20"`
	Location        string          `gorm:"not null;size:500"`
	GuestCount      int             `gorm:"not null"`
	SpecialRequests string          `gorm:"size:1000"`
	TotalPriceCents int64           `gorm:"not null"`
	Currency        string          `gorm:"not null;size:3;default:'USD'"`
	Version         int64           `gorm:"not null;default:1"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
	LineItems       []LineItemModel `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// LineItemModel is the GORM model for the booking_line_items table.
type LineItemModel struct {
	ID             uint      `gorm:"primaryKey"`
	BookingID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Position       int       `gorm:"not null"`
	MenuItemID     uuid.UUID `gorm:"type:uuid;not null"`
	Name           string    `gorm:"not null;size:200"`
	Quantity       int       `gorm:"not null"`
	UnitPriceCents int64     `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (LineItemModel) TableName() string {
	return "booking_line_items"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func orderedLineItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return r.findByID(r.db.WithContext(ctx), id)
}

func (r *GormBookingRepository) findByID(db *gorm.DB, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := db.Preload("LineItems", orderedLineItems).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindPendingUnassigned retrieves claimable bookings, earliest event first.
func (r *GormBookingRepository) FindPendingUnassigned(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.paginate(ctx, "event_date ASC, created_at ASC", page, limit,
		"status = ? AND worker_id IS NULL", string(bookingDomain.StatusPending))
}

// FindByClientID retrieves bookings for a specific client with pagination.
func (r *GormBookingRepository) FindByClientID(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.paginate(ctx, "created_at DESC", page, limit, "client_id = ?", clientID)
}

// FindByWorkerID retrieves bookings for a specific worker with pagination.
func (r *GormBookingRepository) FindByWorkerID(ctx context.Context, workerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.paginate(ctx, "event_date ASC, created_at ASC", page, limit, "worker_id = ?", workerID)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.paginate(ctx, "created_at DESC", page, limit, "1 = 1")
}

func (r *GormBookingRepository) paginate(ctx context.Context, order string, page, limit int, query string, args ...interface{}) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where(query, args...).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Preload("LineItems", orderedLineItems).
		Where(query, args...).
		Order(order).
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}

	return bookings, total, nil
}

// Save persists a new booking together with its line items.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// ConditionalUpdate applies patch in a single UPDATE whose WHERE clause
// carries the expectation. PostgreSQL re-evaluates the predicate after a
// concurrent writer commits, so at most one of several racing updates
// matches.
func (r *GormBookingRepository) ConditionalUpdate(
	ctx context.Context,
	id uuid.UUID,
	exp bookingDomain.Expectation,
	patch bookingDomain.Patch,
) (*bookingDomain.Booking, error) {
	var updated *bookingDomain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&BookingModel{}).Where("id = ? AND status = ?", id, string(exp.Status))
		if exp.WorkerAssigned {
			query = query.Where("worker_id IS NOT NULL")
		} else {
			query = query.Where("worker_id IS NULL")
		}

		updates := map[string]interface{}{
			"status":     string(patch.Status),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		}
		if patch.WorkerID != nil {
			updates["worker_id"] = *patch.WorkerID
		}

		result := query.Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update booking: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&BookingModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check booking existence: %w", err)
			}
			if count == 0 {
				return domain.NewNotFoundError("Booking", id.String())
			}
			return domain.NewConflictError("booking was modified by another transaction")
		}

		bk, err := r.findByID(tx, id)
		if err != nil {
			return err
		}
		updated = bk
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	details := bk.EventDetails()
	items := bk.LineItems()
	lineItems := make([]LineItemModel, len(items))
	for i, li := range items {
		lineItems[i] = LineItemModel{
			BookingID:      bk.ID(),
			Position:       i,
			MenuItemID:     li.CatalogItemID,
			Name:           li.Name,
			Quantity:       li.Quantity,
			UnitPriceCents: li.UnitPriceCents,
		}
	}

	return &BookingModel{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		ClientID:        bk.ClientID(),
		WorkerID:        bk.WorkerID(),
		Status:          string(bk.Status()),
		EventDate:       details.EventDate,
		EventTime:       details.EventTime,
		Location:        details.Location,
		GuestCount:      details.GuestCount,
		SpecialRequests: details.SpecialRequests,
		TotalPriceCents: bk.TotalPriceCents(),
		Currency:        bk.Currency(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
		LineItems:       lineItems,
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	items := make([]bookingDomain.LineItem, len(m.LineItems))
	for i, li := range m.LineItems {
		items[i] = bookingDomain.LineItem{
			CatalogItemID:  li.MenuItemID,
			Name:           li.Name,
			Quantity:       li.Quantity,
			UnitPriceCents: li.UnitPriceCents,
		}
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.ClientID,
		m.WorkerID,
		status,
		items,
		bookingDomain.EventDetails{
			EventDate:       m.EventDate.UTC(),
			EventTime:       m.EventTime,
			Location:        m.Location,
			GuestCount:      m.GuestCount,
			SpecialRequests: m.SpecialRequests,
		},
		m.TotalPriceCents,
		m.Currency,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
