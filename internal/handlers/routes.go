package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes вешает все API роуты на группу /api
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup) {
	accommodations := api.Group("/accommodations")
	{
		accommodations.POST("", h.CreateAccommodation)
		accommodations.GET("", h.ListAccommodations)
		accommodations.GET("/search", h.SearchAccommodations)
		accommodations.GET("/:id", h.GetAccommodation)
		accommodations.PUT("/:id", h.UpdateAccommodation)
		accommodations.DELETE("/:id", h.DeleteAccommodation)
	}

	bookings := api.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("/my", h.ListMyBookings)
		bookings.GET("/search", h.SearchBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id", h.UpdateBooking)
		bookings.PATCH("/:id/status", h.UpdateBookingStatus)
		bookings.DELETE("/:id", h.CancelBooking)
	}

	payments := api.Group("/payments")
	{
		payments.GET("", h.ListPayments)
		payments.POST("", h.CreatePayment)
		payments.GET("/success", h.PaymentSuccess)
		payments.GET("/cancel", h.PaymentCancel)
		payments.POST("/:id/renew", h.RenewPayment)
		payments.GET("/:id/receipt", h.PaymentReceipt)
	}

	users := api.Group("/users")
	{
		users.GET("/me", h.GetMe)
		users.PUT("/me", h.UpdateMe)
		users.PATCH("/:id/role", h.UpdateUserRole)
	}
}
