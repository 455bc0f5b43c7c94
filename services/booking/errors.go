package booking

import "errors"

var (
	// ErrPaymentNotCompleted means the checkout session has not reached
	// payment_status "paid". Client error; nothing is mutated.
	ErrPaymentNotCompleted = errors.New("booking: payment not completed")

	// ErrConfirmationInProgress means another confirmation for the same
	// booking currently holds the idempotency guard.
	ErrConfirmationInProgress = errors.New("booking: confirmation already in progress")
)
