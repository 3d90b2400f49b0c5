package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/domain"
	bookingDomain "github.com/platterhub/service-booking/internal/domain/booking"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bookingsCollection = "bookings"

// bookingDocument is the MongoDB representation of a booking. Line items are
// embedded so a booking is always written in one document operation.
type bookingDocument struct {
	ID              string             `bson:"_id"`
	BookingNumber   string             `bson:"booking_number"`
	ClientID        string             `bson:"client_id"`
	WorkerID        *string            `bson:"worker_id"`
	Status          string             `bson:"status"`
	LineItems       []lineItemDocument `bson:"line_items"`
	EventDate       time.Time          `bson:"event_date"`
	EventTime       string             `bson:"event_time"`
	Location        string             `bson:"location"`
	GuestCount      int                `bson:"guest_count"`
	SpecialRequests string             `bson:"special_requests"`
	TotalPriceCents int64              `bson:"total_price_cents"`
	Currency        string             `bson:"currency"`
	Version         int64              `bson:"version"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

type lineItemDocument struct {
	MenuItemID     string `bson:"menu_item_id"`
	Name           string `bson:"name"`
	Quantity       int    `bson:"quantity"`
	UnitPriceCents int64  `bson:"unit_price_cents"`
}

// MongoBookingRepository implements BookingRepository on a MongoDB collection.
type MongoBookingRepository struct {
	collection *mongo.Collection
}

// NewMongoBookingRepository creates a new MongoBookingRepository.
func NewMongoBookingRepository(db *mongo.Database) *MongoBookingRepository {
	return &MongoBookingRepository{
		collection: db.Collection(bookingsCollection),
	}
}

// EnsureIndexes creates the indexes used by the list queries.
func (r *MongoBookingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "booking_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "worker_id", Value: 1}, {Key: "event_date", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "event_date", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("cannot create booking indexes: %w", err)
	}
	return nil
}

func (r *MongoBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	if bk == nil {
		return fmt.Errorf("booking is nil")
	}
	if _, err := r.collection.InsertOne(ctx, toBookingDocument(bk)); err != nil {
		return fmt.Errorf("cannot create booking: %w", err)
	}
	return nil
}

func (r *MongoBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var doc bookingDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("cannot get booking: %w", err)
	}
	return fromBookingDocument(&doc)
}

var (
	byEventDateAsc = bson.D{{Key: "event_date", Value: 1}, {Key: "created_at", Value: 1}}
	byCreatedDesc  = bson.D{{Key: "created_at", Value: -1}}
)

func (r *MongoBookingRepository) FindPendingUnassigned(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	filter := bson.M{"status": string(bookingDomain.StatusPending), "worker_id": nil}
	return r.paginate(ctx, filter, byEventDateAsc, page, limit)
}

func (r *MongoBookingRepository) FindByClientID(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.paginate(ctx, bson.M{"client_id": clientID.String()}, byCreatedDesc, page, limit)
}

func (r *MongoBookingRepository) FindByWorkerID(ctx context.Context, workerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.paginate(ctx, bson.M{"worker_id": workerID.String()}, byEventDateAsc, page, limit)
}

func (r *MongoBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.paginate(ctx, bson.M{}, byCreatedDesc, page, limit)
}

func (r *MongoBookingRepository) paginate(ctx context.Context, filter bson.M, sort bson.D, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot count bookings: %w", err)
	}

	opts := options.Find().
		SetSort(sort).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bookingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("cannot decode bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(docs))
	for i := range docs {
		bk, err := fromBookingDocument(&docs[i])
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}
	return bookings, total, nil
}

func (r *MongoBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("cannot count by status: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("cannot decode status counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ConditionalUpdate matches and updates in one FindOneAndUpdate, which is
// atomic for a single document.
func (r *MongoBookingRepository) ConditionalUpdate(
	ctx context.Context,
	id uuid.UUID,
	exp bookingDomain.Expectation,
	patch bookingDomain.Patch,
) (*bookingDomain.Booking, error) {
	filter := bson.M{"_id": id.String(), "status": string(exp.Status)}
	if exp.WorkerAssigned {
		filter["worker_id"] = bson.M{"$ne": nil}
	} else {
		filter["worker_id"] = nil
	}

	set := bson.M{
		"status":     string(patch.Status),
		"updated_at": time.Now().UTC(),
	}
	if patch.WorkerID != nil {
		set["worker_id"] = patch.WorkerID.String()
	}
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}

	var doc bookingDocument
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("cannot update booking: %w", err)
		}
		n, cerr := r.collection.CountDocuments(ctx, bson.M{"_id": id.String()})
		if cerr != nil {
			return nil, fmt.Errorf("cannot check booking existence: %w", cerr)
		}
		if n == 0 {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, domain.NewConflictError("booking was modified by another transaction")
	}
	return fromBookingDocument(&doc)
}

func toBookingDocument(bk *bookingDomain.Booking) *bookingDocument {
	var workerID *string
	if w := bk.WorkerID(); w != nil {
		s := w.String()
		workerID = &s
	}

	items := bk.LineItems()
	lineItems := make([]lineItemDocument, len(items))
	for i, li := range items {
		lineItems[i] = lineItemDocument{
			MenuItemID:     li.CatalogItemID.String(),
			Name:           li.Name,
			Quantity:       li.Quantity,
			UnitPriceCents: li.UnitPriceCents,
		}
	}

	details := bk.EventDetails()
	return &bookingDocument{
		ID:              bk.ID().String(),
		BookingNumber:   bk.BookingNumber(),
		ClientID:        bk.ClientID().String(),
		WorkerID:        workerID,
		Status:          string(bk.Status()),
		LineItems:       lineItems,
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
	}
}

func fromBookingDocument(doc *bookingDocument) (*bookingDomain.Booking, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking id %q: %w", doc.ID, err)
	}
	clientID, err := uuid.Parse(doc.ClientID)
	if err != nil {
		return nil, fmt.Errorf("invalid client id %q: %w", doc.ClientID, err)
	}
	var workerID *uuid.UUID
	if doc.WorkerID != nil {
		w, err := uuid.Parse(*doc.WorkerID)
		if err != nil {
			return nil, fmt.Errorf("invalid worker id %q: %w", *doc.WorkerID, err)
		}
		workerID = &w
	}
	status, err := bookingDomain.ParseBookingStatus(doc.Status)
	if err != nil {
		return nil, err
	}

	items := make([]bookingDomain.LineItem, len(doc.LineItems))
	for i, li := range doc.LineItems {
		itemID, err := uuid.Parse(li.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("invalid menu item id %q: %w", li.MenuItemID, err)
		}
		items[i] = bookingDomain.LineItem{
			CatalogItemID:  itemID,
			Name:           li.Name,
			Quantity:       li.Quantity,
			UnitPriceCents: li.UnitPriceCents,
		}
	}

	return bookingDomain.ReconstructBooking(
		id,
		doc.BookingNumber,
		clientID,
		workerID,
		status,
		items,
		bookingDomain.EventDetails{
			EventDate:       doc.EventDate.UTC(),
			EventTime:       doc.EventTime,
			Location:        doc.Location,
			GuestCount:      doc.GuestCount,
			SpecialRequests: doc.SpecialRequests,
		},
		doc.TotalPriceCents,
		doc.Currency,
		doc.Version,
		doc.CreatedAt.UTC(),
		doc.UpdatedAt.UTC(),
	), nil
}
