package routes

import (
	"time"

	"slotbook/handlers"
	"slotbook/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterLocationRoutes registers location endpoints. Reads need any caller, writes an admin.
func RegisterLocationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/locations")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("", hb.ListLocationsHandler)

		admin := api.Group("")
		admin.Use(middleware.RequireAdmin())
		admin.POST("", hb.CreateLocationHandler)
		admin.PATCH("/:id", hb.UpdateLocationHandler)
		admin.DELETE("/:id", hb.DeleteLocationHandler)
	}
}

// RegisterAvailabilityRoutes registers slot publishing and browsing endpoints.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/availability")
	{
		// Browsing is public.
		api.GET("", hb.ListAvailabilityHandler)

		admin := api.Group("")
		admin.Use(middleware.JWTAuthMiddleware(), middleware.RequireAdmin())
		admin.POST("/generate", hb.GenerateSlotsHandler)
		admin.POST("", hb.CreateSlotHandler)
		admin.PATCH("/slot", hb.UpdateSlotHandler)
		admin.DELETE("/slot", hb.DeleteSlotHandler)
	}
}

// RegisterBookingRoutes registers the booking endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("", hb.CreateBookingHandler)
		api.GET("", hb.ListBookingsHandler)
	}
}

// RegisterBalanceRoutes registers prepaid balance endpoints.
func RegisterBalanceRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/balance")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("", hb.GetBalanceHandler)
		api.GET("/entries", hb.GetLedgerHandler)
		api.POST("/card-topup", hb.CardTopUpHandler)
		api.POST("/topup", middleware.RequireAdmin(), hb.TopUpHandler)
	}
}

// RegisterAdminRoutes sets up endpoints for operator follow-up.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.JWTAuthMiddleware(), middleware.RequireAdmin())
		adminGroup.GET("/reconciliations", hb.ListReconciliationsHandler)
		adminGroup.POST("/reconciliations/:id/resolve", hb.ResolveReconciliationHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Saga-State"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterLocationRoutes(r, hb)
	RegisterAvailabilityRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterBalanceRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
