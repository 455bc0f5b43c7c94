package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"veridie/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo implements BookingRepository using MongoDB. Registered and
// guest bookings live in separate collections with identical document shapes.
type MongoBookingRepo struct {
	bookings      *mongo.Collection
	guestBookings *mongo.Collection
}

// NewMongoBookingRepo creates a BookingRepository backed by the "bookings" and
// "guest_bookings" collections.
func NewMongoBookingRepo(client *mongo.Client, dbName string) *MongoBookingRepo {
	db := client.Database(dbName)
	return &MongoBookingRepo{
		bookings:      db.Collection("bookings"),
		guestBookings: db.Collection("guest_bookings"),
	}
}

func (r *MongoBookingRepo) collFor(kind models.BookingKind) *mongo.Collection {
	if kind == models.BookingKindGuest {
		return r.guestBookings
	}
	return r.bookings
}

func (r *MongoBookingRepo) CreatePending(booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	booking.Status = models.BookingStatusPendingPayment
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	if _, err := r.collFor(booking.Kind).InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create pending booking: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(id string, kind models.BookingKind) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := r.collFor(kind).FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		return nil, fmt.Errorf("failed to fetch booking with id %s: %w", id, err)
	}
	booking.Kind = kind
	return &booking, nil
}

func (r *MongoBookingRepo) GetByPaymentSession(sessionID string, kind models.BookingKind) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var booking models.Booking
	filter := bson.M{"payment_session_id": sessionID}
	if err := r.collFor(kind).FindOne(ctx, filter).Decode(&booking); err != nil {
		return nil, fmt.Errorf("failed to fetch booking for session %s: %w", sessionID, err)
	}
	booking.Kind = kind
	return &booking, nil
}

// SaveConfirmed upserts the reconstructed booking with status confirmed.
func (r *MongoBookingRepo) SaveConfirmed(booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	booking.Status = models.BookingStatusConfirmed
	booking.UpdatedAt = time.Now()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = booking.UpdatedAt
	}

	filter := bson.M{"id": booking.ID}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collFor(booking.Kind).ReplaceOne(ctx, filter, booking, opts); err != nil {
		return fmt.Errorf("failed to save confirmed booking %s: %w", booking.ID, err)
	}
	return nil
}

// ConfirmAtomically flips status and stores the event URI in one filtered
// update. The status filter is what makes concurrent confirmations safe: only
// the first caller matches the pending_payment document.
func (r *MongoBookingRepo) ConfirmAtomically(id string, kind models.BookingKind, eventURI string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": models.BookingStatusPendingPayment}
	set := bson.M{
		"status":     models.BookingStatusConfirmed,
		"updated_at": time.Now(),
	}
	if eventURI != "" {
		set["calendly_event_uri"] = eventURI
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking models.Booking
	err := r.collFor(kind).FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the row is missing or it already left pending_payment.
		existing, getErr := r.GetByID(id, kind)
		if getErr != nil {
			return nil, fmt.Errorf("booking %s not found: %w", id, getErr)
		}
		if existing.Status == models.BookingStatusConfirmed {
			return existing, ErrAlreadyConfirmed
		}
		return nil, fmt.Errorf("booking %s in unexpected status %s", id, existing.Status)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to confirm booking %s: %w", id, err)
	}
	booking.Kind = kind
	return &booking, nil
}
