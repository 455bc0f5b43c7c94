package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "veridie/database/repository/booking"
	consultantRepo "veridie/database/repository/consultant"
	userRepo "veridie/database/repository/user"
	"veridie/models"
	"veridie/services/calendly"
	"veridie/services/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Orchestration step names surfaced in the confirmation response.
const (
	stepVerifyPayment  = "verify_payment"
	stepResolveBooking = "resolve_booking"
	stepScheduleEvent  = "schedule_event"
	stepPersistStatus  = "persist_status"
)

// defaultSessionLength is used when no event-type duration is known.
const defaultSessionLength = time.Hour

// DefaultConfirmationService implements ConfirmationService and
// CheckoutService.
type DefaultConfirmationService struct {
	Payments    PaymentGateway
	Bookings    bookingRepo.BookingRepository
	Consultants consultantRepo.ConsultantRepository
	Users       userRepo.UserRepository
	Tokens      token.Service
	Calendly    calendly.API
	Guard       ConfirmationGuard
	Logger      *zap.Logger
}

// Confirm runs the booking-confirmation flow. Payment verification failures
// abort with a client error and zero mutation; after payment is verified,
// every later failure degrades the corresponding step instead of failing the
// confirmation, because money has already been captured.
func (s *DefaultConfirmationService) Confirm(ctx context.Context, sessionID, bookingID string, kind models.BookingKind) (*models.ConfirmationResult, error) {
	// Step 1: verify payment. No state is touched before this passes.
	session, err := s.Payments.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify payment session %s: %w", sessionID, err)
	}
	if !session.Paid() {
		return nil, ErrPaymentNotCompleted
	}

	// Serialize confirmations per booking so concurrent retries cannot both
	// reach the calendar-event creation step.
	acquired, err := s.Guard.Acquire(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		if existing, getErr := s.Bookings.GetByID(bookingID, kind); getErr == nil && existing.Status == models.BookingStatusConfirmed {
			return s.alreadyConfirmedResult(existing, kind), nil
		}
		return nil, ErrConfirmationInProgress
	}
	defer s.Guard.Release(ctx, bookingID)

	steps := []models.StepResult{{Step: stepVerifyPayment, Status: models.StepOK}}

	// Step 2: resolve the booking row, reconstructing from session metadata
	// when checkout and confirmation raced.
	booking, reconstructed := s.resolveBooking(sessionID, bookingID, kind, session)
	if booking.Status == models.BookingStatusConfirmed {
		// A previous confirmation already completed; do not touch Calendly.
		return s.alreadyConfirmedResult(booking, kind), nil
	}
	resolveStep := models.StepResult{Step: stepResolveBooking, Status: models.StepOK}
	if reconstructed {
		resolveStep.Status = models.StepDegraded
		resolveStep.Reason = "booking row missing, reconstructed from payment session metadata"
	}
	steps = append(steps, resolveStep)

	// Steps 3-4: scheduling leg, best effort.
	eventURI, scheduleStep := s.scheduleEvent(ctx, booking, session)
	steps = append(steps, scheduleStep)

	// Step 5: persist confirmed status (and the event URI in the same write).
	persistStep := models.StepResult{Step: stepPersistStatus, Status: models.StepOK}
	if reconstructed {
		booking.CalendlyEventURI = eventURI
		if err := s.Bookings.SaveConfirmed(booking); err != nil {
			s.Logger.Error("Failed to save reconstructed booking",
				zap.String("bookingId", booking.ID), zap.Error(err))
			persistStep = models.StepResult{Step: stepPersistStatus, Status: models.StepDegraded, Reason: err.Error()}
		}
	} else {
		updated, err := s.Bookings.ConfirmAtomically(booking.ID, kind, eventURI)
		switch {
		case errors.Is(err, bookingRepo.ErrAlreadyConfirmed):
			persistStep.Reason = "already confirmed"
			if eventURI == "" && updated != nil {
				eventURI = updated.CalendlyEventURI
			}
		case err != nil:
			// Payment already verified: degrade, never claim total failure.
			s.Logger.Error("Failed to persist booking confirmation",
				zap.String("bookingId", booking.ID), zap.Error(err))
			persistStep = models.StepResult{Step: stepPersistStatus, Status: models.StepDegraded, Reason: err.Error()}
		}
	}
	steps = append(steps, persistStep)

	result := &models.ConfirmationResult{
		Success:              true,
		CalendlyEventCreated: eventURI != "" && scheduleStep.Status == models.StepOK,
		IsGuest:              kind == models.BookingKindGuest,
		Steps:                steps,
	}
	if eventURI != "" {
		result.CalendlyEventURI = &eventURI
	}
	return result, nil
}

// resolveBooking loads the booking row, falling back to a projection built
// from the payment session metadata written at checkout start.
func (s *DefaultConfirmationService) resolveBooking(sessionID, bookingID string, kind models.BookingKind, session *models.PaymentSession) (*models.Booking, bool) {
	if booking, err := s.Bookings.GetByID(bookingID, kind); err == nil {
		return booking, false
	}
	if booking, err := s.Bookings.GetByPaymentSession(sessionID, kind); err == nil {
		return booking, false
	}

	s.Logger.Warn("Booking row not found, reconstructing from session metadata",
		zap.String("bookingId", bookingID), zap.String("sessionId", sessionID))
	meta := session.Metadata
	return &models.Booking{
		ID:               bookingID,
		Kind:             kind,
		ConsultantID:     meta["mentorId"],
		ServiceID:        meta["serviceId"],
		PaymentSessionID: sessionID,
		Status:           models.BookingStatusPendingPayment,
		Date:             meta["date"],
		Time:             meta["time"],
		GuestName:        meta["guestName"],
		GuestEmail:       meta["guestEmail"],
	}, true
}

// scheduleEvent runs the Calendly leg. Any failure is reported as a degraded
// or skipped step; it never aborts the confirmation.
func (s *DefaultConfirmationService) scheduleEvent(ctx context.Context, booking *models.Booking, session *models.PaymentSession) (string, models.StepResult) {
	consultant, err := s.Consultants.GetByID(booking.ConsultantID)
	if err != nil {
		s.Logger.Warn("Failed to load consultant for scheduling",
			zap.String("consultantId", booking.ConsultantID), zap.Error(err))
		return "", models.StepResult{Step: stepScheduleEvent, Status: models.StepDegraded, Reason: "consultant not found"}
	}

	if !consultant.Calendly.Connected() {
		return "", models.StepResult{Step: stepScheduleEvent, Status: models.StepSkipped, Reason: "calendly not connected"}
	}

	eventTypeURI := consultant.EventTypeFor(booking.ServiceID)
	if eventTypeURI == "" {
		s.Logger.Info("No event type mapping, skipping calendar event",
			zap.String("consultantId", consultant.ID), zap.String("serviceId", booking.ServiceID))
		return "", models.StepResult{Step: stepScheduleEvent, Status: models.StepSkipped, Reason: "no event type mapping"}
	}

	start, err := parseSlot(booking.Date, booking.Time)
	if err != nil {
		return "", models.StepResult{Step: stepScheduleEvent, Status: models.StepDegraded, Reason: err.Error()}
	}

	accessToken, err := s.Tokens.EnsureValidToken(ctx, consultant.ID)
	if err != nil {
		s.Logger.Warn("Failed to obtain calendly token",
			zap.String("consultantId", consultant.ID), zap.Error(err))
		return "", models.StepResult{Step: stepScheduleEvent, Status: models.StepDegraded, Reason: "token refresh failed"}
	}

	var profile *models.User
	if booking.Kind == models.BookingKindRegistered && booking.UserID != "" {
		profile, _ = s.Users.GetByID(booking.UserID)
	}
	attendee := models.ResolveAttendee(booking, profile, session)

	event, err := s.Calendly.CreateEvent(ctx, accessToken, models.CreateEventRequest{
		EventTypeURI: eventTypeURI,
		StartTime:    start,
		EndTime:      start.Add(defaultSessionLength),
		Attendee:     attendee,
		Metadata: map[string]string{
			"bookingId": booking.ID,
			"serviceId": booking.ServiceID,
		},
	})
	if err != nil {
		s.Logger.Warn("Calendly event creation failed",
			zap.String("bookingId", booking.ID), zap.Error(err))
		return "", models.StepResult{Step: stepScheduleEvent, Status: models.StepDegraded, Reason: "event creation failed"}
	}

	return event.URI, models.StepResult{Step: stepScheduleEvent, Status: models.StepOK}
}

func (s *DefaultConfirmationService) alreadyConfirmedResult(booking *models.Booking, kind models.BookingKind) *models.ConfirmationResult {
	result := &models.ConfirmationResult{
		Success:              true,
		CalendlyEventCreated: false,
		IsGuest:              kind == models.BookingKindGuest,
		Steps: []models.StepResult{
			{Step: stepVerifyPayment, Status: models.StepOK},
			{Step: stepScheduleEvent, Status: models.StepSkipped, Reason: "already confirmed"},
			{Step: stepPersistStatus, Status: models.StepSkipped, Reason: "already confirmed"},
		},
	}
	if booking.CalendlyEventURI != "" {
		uri := booking.CalendlyEventURI
		result.CalendlyEventURI = &uri
	}
	return result
}

// parseSlot combines the stored date and time into a UTC timestamp.
func parseSlot(date, clock string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04", date+" "+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid booking slot %q %q: %w", date, clock, err)
	}
	return t, nil
}

// CreatePendingBooking records the booking row when a checkout session starts.
func (s *DefaultConfirmationService) CreatePendingBooking(ctx context.Context, input CheckoutInput) (*models.Booking, error) {
	if input.ConsultantID == "" || input.PaymentSessionID == "" {
		return nil, fmt.Errorf("consultant id and payment session id are required")
	}
	if input.Kind == "" {
		input.Kind = models.BookingKindRegistered
	}
	booking := &models.Booking{
		ID:               input.BookingID,
		Kind:             input.Kind,
		ConsultantID:     input.ConsultantID,
		ServiceID:        input.ServiceID,
		PaymentSessionID: input.PaymentSessionID,
		Date:             input.Date,
		Time:             input.Time,
		UserID:           input.UserID,
		GuestName:        input.GuestName,
		GuestEmail:       input.GuestEmail,
	}
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if err := s.Bookings.CreatePending(booking); err != nil {
		return nil, err
	}
	return booking, nil
}
