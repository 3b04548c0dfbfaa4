package handlers

import (
	"github.com/gin-gonic/gin"

	"yatra/internal/middleware"
)

// Register настраивает все API роуты
func (h *Handlers) Register(api *gin.RouterGroup, tokens middleware.TokenParser) {
	auth := middleware.Auth(tokens)

	// Публичные роуты
	trips := api.Group("/trips")
	{
		trips.GET("", h.ListTrips)
		trips.GET("/:id", h.GetTrip)
	}

	otp := api.Group("/auth/otp")
	{
		otp.POST("/request", h.RequestOTP)
		otp.POST("/verify", h.VerifyOTP)
	}

	// Уведомления шлюза подписаны токеном, JWT не требуется
	api.POST("/payments/callback", h.OnPaymentUpdates)

	bookings := api.Group("/bookings", auth)
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id/cancel", h.CancelBooking)
		bookings.GET("/:id/ticket", h.DownloadTicket)
		bookings.POST("/:id/payments", h.InitiatePayment)
		bookings.GET("/:id/payments", h.ListPayments)
	}

	admin := api.Group("/admin", auth, middleware.AdminOnly())
	{
		admin.POST("/trips", h.CreateTrip)
		admin.PATCH("/trips/:id/capacity", h.UpdateTripCapacity)
		admin.PATCH("/trips/:id/status", h.UpdateTripStatus)
		admin.GET("/trips/:id/bookings", h.ListTripBookings)
		admin.POST("/bookings/:id/payments", h.RecordOfflinePayment)
		admin.POST("/payments/:orderId/sync", h.SyncPayment)
	}
}
