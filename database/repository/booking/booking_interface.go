package bookingRepo

import (
	"errors"

	"veridie/models"
)

// ErrAlreadyConfirmed is returned when a booking has left the pending_payment
// state before the caller's transition attempt.
var ErrAlreadyConfirmed = errors.New("booking already confirmed")

// BookingRepository defines persistence operations for guest and registered
// bookings. The kind selects the physical collection; the lifecycle is shared.
type BookingRepository interface {
	CreatePending(booking *models.Booking) error
	GetByID(id string, kind models.BookingKind) (*models.Booking, error)
	GetByPaymentSession(sessionID string, kind models.BookingKind) (*models.Booking, error)

	// ConfirmAtomically performs the pending_payment -> confirmed transition
	// and records the Calendly event URI in the same write. The filtered
	// update guarantees the transition happens at most once; a second caller
	// gets ErrAlreadyConfirmed.
	ConfirmAtomically(id string, kind models.BookingKind, eventURI string) (*models.Booking, error)

	// SaveConfirmed upserts a booking directly in the confirmed state. Used
	// when the row was reconstructed from payment session metadata because
	// checkout and confirmation raced.
	SaveConfirmed(booking *models.Booking) error
}
