package handlers

import (
	"net/http"
	"strconv"

	"homerent/internal/models"

	"github.com/gin-gonic/gin"
)

// Bookings handlers

func bookingResponses(list []models.Booking) []models.BookingResponse {
	out := make([]models.BookingResponse, 0, len(list))
	for i := range list {
		out = append(out, models.NewBookingResponse(&list[i]))
	}
	return out
}

// CreateBooking - POST /api/bookings
// Создать бронирование
func (h *Handlers) CreateBooking(c *gin.Context) {
	id, ok := actor(c)
	if !ok {
		return
	}
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	booking, err := h.bookings.Create(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, "create booking", err)
		return
	}

	c.JSON(http.StatusCreated, models.NewBookingResponse(booking))
}

// ListMyBookings - GET /api/bookings/my
// Бронирования текущего пользователя
func (h *Handlers) ListMyBookings(c *gin.Context) {
	id, ok := actor(c)
	if !ok {
		return
	}
	page, ok := parsePage(c)
	if !ok {
		return
	}

	list, err := h.bookings.ListMine(c.Request.Context(), id, page)
	if err != nil {
		respondError(c, "list bookings", err)
		return
	}
	c.JSON(http.StatusOK, bookingResponses(list))
}

// SearchBookings - GET /api/bookings/search?user_id=&status=
// Бронирования пользователя с фильтром по статусам (админ)
func (h *Handlers) SearchBookings(c *gin.Context) {
	id, ok := actor(c)
	if !ok {
		return
	}
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		badRequest(c, "user_id is required")
		return
	}
	var statuses []models.BookingStatus
	for _, raw := range c.QueryArray("status") {
		status, err := models.ParseBookingStatus(raw)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		statuses = append(statuses, status)
	}
	page, ok := parsePage(c)
	if !ok {
		return
	}

	list, err := h.bookings.Search(c.Request.Context(), id, userID, statuses, page)
	if err != nil {
		respondError(c, "search bookings", err)
		return
	}
	c.JSON(http.StatusOK, bookingResponses(list))
}

// GetBooking - GET /api/bookings/:id
// Бронирование вместе с объектом размещения
func (h *Handlers) GetBooking(c *gin.Context) {
	id, ok := actor(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c)
	if !ok {
		return
	}

	booking, err := h.bookings.GetDetails(c.Request.Context(), id, bookingID)
	if err != nil {
		respondError(c, "get booking", err)
		return
	}
	c.JSON(http.StatusOK, models.NewBookingDetailsResponse(booking))
}

// UpdateBookingStatus - PATCH /api/bookings/:id/status
func (h *Handlers) UpdateBookingStatus(c *gin.Context) {
	id, ok := actor(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c)
	if !ok {
		return
	}
	var req models.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	booking, err := h.bookings.UpdateStatus(c.Request.Context(), id, bookingID, models.BookingStatus(req.Status))
	if err != nil {
		respondError(c, "update booking status", err)
		return
	}
	c.JSON(http.StatusOK, models.NewBookingResponse(booking))
}

// UpdateBooking - PUT /api/bookings/:id
func (h *Handlers) UpdateBooking(c *gin.Context) {
	id, ok := actor(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c)
	if !ok {
		return
	}
	var req models.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	booking, err := h.bookings.UpdateDetails(c.Request.Context(), id, bookingID, &req)
	if err != nil {
		respondError(c, "update booking", err)
		return
	}
	c.JSON(http.StatusOK, models.NewBookingResponse(booking))
}

// CancelBooking - DELETE /api/bookings/:id
// Отменить бронирование
func (h *Handlers) CancelBooking(c *gin.Context) {
	id, ok := actor(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c)
	if !ok {
		return
	}

	booking, err := h.bookings.Cancel(c.Request.Context(), id, bookingID)
	if err != nil {
		respondError(c, "cancel booking", err)
		return
	}
	c.JSON(http.StatusOK, models.NewBookingResponse(booking))
}
