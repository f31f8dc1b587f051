package handlers

import (
	"net/http"

	"slotbook/models"
	"slotbook/services/booking"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	Saga booking.BookingSaga
}

func NewBookingHandler(saga booking.BookingSaga) *BookingHandler {
	return &BookingHandler{Saga: saga}
}

// CreateBookingHandler books one range directly and reports a failure as an error status.
// Several ranges are booked independently and always answered with a summary.
func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.ClientID == "" {
		req.ClientID = actor.ID
	}

	if len(req.Ranges) == 1 {
		b, state, err := h.Saga.Reserve(c.Request.Context(), actor, req.ClientID, req.Ranges[0])
		if err != nil {
			c.Header("X-Saga-State", string(state))
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.BookingSummary{
			Created:      1,
			TotalCharged: b.Charge,
			Bookings:     []models.Booking{*b},
		})
		return
	}

	summary, err := h.Saga.Book(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if summary.Failed > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, summary)
}

// ListBookingsHandler lists the caller's bookings, or another client's for administrators.
func (h *BookingHandler) ListBookingsHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	clientID := c.DefaultQuery("clientId", actor.ID)
	bookings, err := h.Saga.History(c.Request.Context(), actor, clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}
