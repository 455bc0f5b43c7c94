package handlers

import (
	"errors"
	"net/http"

	"veridie/models"
	"veridie/services/booking"
	"veridie/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the checkout and confirmation endpoints.
type BookingHandler struct {
	Confirmations booking.ConfirmationService
	Checkout      booking.CheckoutService
	Logger        *zap.Logger
}

func NewBookingHandler(confirmations booking.ConfirmationService, checkout booking.CheckoutService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Confirmations: confirmations, Checkout: checkout, Logger: logger}
}

// ConfirmBookingHandler finalizes a paid booking.
func (h *BookingHandler) ConfirmBookingHandler(c *gin.Context) {
	var input struct {
		SessionID string `json:"sessionId"`
		BookingID string `json:"bookingId"`
		IsGuest   bool   `json:"isGuest"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.SessionID == "" || input.BookingID == "" {
		utils.JSONError(c, http.StatusBadRequest, "missing required parameters", "sessionId and bookingId are required")
		return
	}

	kind := models.BookingKindRegistered
	if input.IsGuest {
		kind = models.BookingKindGuest
	}

	result, err := h.Confirmations.Confirm(c.Request.Context(), input.SessionID, input.BookingID, kind)
	switch {
	case errors.Is(err, booking.ErrPaymentNotCompleted):
		utils.JSONError(c, http.StatusBadRequest, "payment not completed", "the checkout session has not been paid")
		return
	case errors.Is(err, booking.ErrConfirmationInProgress):
		utils.JSONError(c, http.StatusConflict, "confirmation in progress", "another confirmation for this booking is running")
		return
	case err != nil:
		h.Logger.Error("Booking confirmation failed", zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "confirmation failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateCheckoutBookingHandler records the pending booking row when a
// checkout session starts.
func (h *BookingHandler) CreateCheckoutBookingHandler(c *gin.Context) {
	var input booking.CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	created, err := h.Checkout.CreatePendingBooking(c.Request.Context(), input)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "failed to create booking", err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": created})
}
