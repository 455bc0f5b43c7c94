package booking

import (
	"context"

	"veridie/models"
)

// ConfirmationService finalizes a paid booking: it verifies payment, creates
// the external calendar event when scheduling is configured, and flips the
// booking status.
type ConfirmationService interface {
	Confirm(ctx context.Context, sessionID, bookingID string, kind models.BookingKind) (*models.ConfirmationResult, error)
}

// CheckoutInput carries the fields written when a checkout session starts.
type CheckoutInput struct {
	BookingID        string             `json:"bookingId"`
	Kind             models.BookingKind `json:"kind"`
	ConsultantID     string             `json:"consultantId"`
	ServiceID        string             `json:"serviceId"`
	PaymentSessionID string             `json:"paymentSessionId"`
	Date             string             `json:"date"`
	Time             string             `json:"time"`
	UserID           string             `json:"userId,omitempty"`
	GuestName        string             `json:"guestName,omitempty"`
	GuestEmail       string             `json:"guestEmail,omitempty"`
}

// CheckoutService records the pending booking row at checkout start.
type CheckoutService interface {
	CreatePendingBooking(ctx context.Context, input CheckoutInput) (*models.Booking, error)
}
