package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups every endpoint handler the router mounts.
type HandlerBundle struct {
	// Location endpoints
	CreateLocationHandler gin.HandlerFunc
	ListLocationsHandler  gin.HandlerFunc
	UpdateLocationHandler gin.HandlerFunc
	DeleteLocationHandler gin.HandlerFunc

	// Availability endpoints
	GenerateSlotsHandler    gin.HandlerFunc
	CreateSlotHandler       gin.HandlerFunc
	ListAvailabilityHandler gin.HandlerFunc
	UpdateSlotHandler       gin.HandlerFunc
	DeleteSlotHandler       gin.HandlerFunc

	// Booking endpoints
	CreateBookingHandler gin.HandlerFunc
	ListBookingsHandler  gin.HandlerFunc

	// Balance endpoints
	GetBalanceHandler gin.HandlerFunc
	GetLedgerHandler  gin.HandlerFunc
	TopUpHandler      gin.HandlerFunc
	CardTopUpHandler  gin.HandlerFunc

	// Operator endpoints
	ListReconciliationsHandler   gin.HandlerFunc
	ResolveReconciliationHandler gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}

// NewHandlerBundle assembles the bundle from the per-area handlers.
func NewHandlerBundle(loc *LocationHandler, avail *AvailabilityHandler, book *BookingHandler, bal *BalanceHandler, rec *ReconciliationHandler) *HandlerBundle {
	return &HandlerBundle{
		CreateLocationHandler: loc.CreateLocationHandler,
		ListLocationsHandler:  loc.ListLocationsHandler,
		UpdateLocationHandler: loc.UpdateLocationHandler,
		DeleteLocationHandler: loc.DeleteLocationHandler,

		GenerateSlotsHandler:    avail.GenerateSlotsHandler,
		CreateSlotHandler:       avail.CreateSlotHandler,
		ListAvailabilityHandler: avail.ListAvailabilityHandler,
		UpdateSlotHandler:       avail.UpdateSlotHandler,
		DeleteSlotHandler:       avail.DeleteSlotHandler,

		CreateBookingHandler: book.CreateBookingHandler,
		ListBookingsHandler:  book.ListBookingsHandler,

		GetBalanceHandler: bal.GetBalanceHandler,
		GetLedgerHandler:  bal.GetLedgerHandler,
		TopUpHandler:      bal.TopUpHandler,
		CardTopUpHandler:  bal.CardTopUpHandler,

		ListReconciliationsHandler:   rec.ListReconciliationsHandler,
		ResolveReconciliationHandler: rec.ResolveReconciliationHandler,

		HealthHandler: HealthHandler,
	}
}
