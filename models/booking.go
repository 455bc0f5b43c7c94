package models

import "time"

// BookingStatus is the persisted booking lifecycle state.
type BookingStatus string

const (
	BookingStatusPendingPayment BookingStatus = "pending_payment"
	BookingStatusConfirmed      BookingStatus = "confirmed"
)

// BookingKind tags the two physical representations of a booking. Guest and
// registered bookings share one lifecycle but live in separate collections.
type BookingKind string

const (
	BookingKindRegistered BookingKind = "registered"
	BookingKindGuest      BookingKind = "guest"
)

// Booking represents a purchase of a time slot with a consultant.
type Booking struct {
	ID               string        `bson:"id" json:"id"`
	Kind             BookingKind   `bson:"-" json:"kind"`
	ConsultantID     string        `bson:"consultant_id" json:"consultantId"`
	ServiceID        string        `bson:"service_id,omitempty" json:"serviceId,omitempty"`
	PaymentSessionID string        `bson:"payment_session_id" json:"paymentSessionId"`
	Status           BookingStatus `bson:"status" json:"status"`
	Date             string        `bson:"date" json:"date"` // "YYYY-MM-DD"
	Time             string        `bson:"time" json:"time"` // "HH:MM"
	UserID           string        `bson:"user_id,omitempty" json:"userId,omitempty"`
	GuestName        string        `bson:"guest_name,omitempty" json:"guestName,omitempty"`
	GuestEmail       string        `bson:"guest_email,omitempty" json:"guestEmail,omitempty"`
	CalendlyEventURI string        `bson:"calendly_event_uri,omitempty" json:"calendlyEventUri,omitempty"`
	CreatedAt        time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time     `bson:"updated_at" json:"updatedAt"`
}

// Attendee is the identity invited to the scheduled calendar event.
type Attendee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ResolveAttendee picks the attendee identity for a booking: guest fields for
// guest bookings, then the registered user's profile, then the payment
// session's customer details as a last resort.
func ResolveAttendee(b *Booking, profile *User, session *PaymentSession) Attendee {
	if b.Kind == BookingKindGuest && b.GuestEmail != "" {
		return Attendee{Name: b.GuestName, Email: b.GuestEmail}
	}
	if profile != nil && profile.Email != "" {
		return Attendee{Name: profile.Name, Email: profile.Email}
	}
	if session != nil && session.CustomerEmail != "" {
		return Attendee{Name: session.CustomerName, Email: session.CustomerEmail}
	}
	return Attendee{Name: b.GuestName, Email: b.GuestEmail}
}

// User is the registered purchaser profile consulted when resolving attendees.
type User struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
