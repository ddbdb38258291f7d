package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"homerent/internal/models"
	"homerent/internal/receipt"

	"github.com/gin-gonic/gin"
)

// Payments handlers

// sessionID accepts both spellings; checkout redirects use session_id
func sessionID(c *gin.Context) string {
	if v := c.Query("session_id"); v != "" {
		return v
	}
	return c.Query("sessionId")
}

// ListPayments - GET /api/payments?user_id=
// Платежи пользователя; без user_id - свои
func (h *Handlers) ListPayments(c *gin.Context) {
	id, ok := actor(c)
	if !ok {
		return
	}
	userID := id.UserID
	if raw := c.Query("user_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			badRequest(c, "user_id must be a positive integer")
			return
		}
		userID = v
	}
	page, ok := parsePage(c)
	if !ok {
		return
	}

	list, err := h.payments.ListByUser(c.Request.Context(), id, userID, page)
	if err != nil {
		respondError(c, "list payments", err)
		return
	}
	out := make([]models.PaymentResponse, 0, len(list))
	for i := range list {
		out = append(out, models.NewPaymentResponse(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

// CreatePayment - POST /api/payments
// Открыть checkout-сессию для бронирования
func (h *Handlers) CreatePayment(c *gin.Context) {
	id, ok := actor(c)
	if !ok {
		return
	}
	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	payment, err := h.payments.Create(c.Request.Context(), id, req.BookingID)
	if err != nil {
		respondError(c, "create payment", err)
		return
	}
	c.JSON(http.StatusCreated, models.NewPaymentResponse(payment))
}

// PaymentSuccess - GET /api/payments/success?session_id=
// Редирект провайдера после оплаты
func (h *Handlers) PaymentSuccess(c *gin.Context) {
	session := sessionID(c)
	if session == "" {
		badRequest(c, "session_id is required")
		return
	}

	payment, err := h.payments.Success(c.Request.Context(), session)
	if err != nil {
		respondError(c, "confirm payment", err)
		return
	}
	c.JSON(http.StatusOK, models.NewPaymentResponse(payment))
}

// PaymentCancel - GET /api/payments/cancel?session_id=
// Пользователь ушёл со страницы оплаты
func (h *Handlers) PaymentCancel(c *gin.Context) {
	session := sessionID(c)
	if session == "" {
		badRequest(c, "session_id is required")
		return
	}

	payment, err := h.payments.Cancel(c.Request.Context(), session)
	if err != nil {
		respondError(c, "cancel payment", err)
		return
	}
	c.JSON(http.StatusOK, models.NewPaymentResponse(payment))
}

// RenewPayment - POST /api/payments/:id/renew
func (h *Handlers) RenewPayment(c *gin.Context) {
	id, ok := actor(c)
	if !ok {
		return
	}
	paymentID, ok := pathID(c)
	if !ok {
		return
	}

	payment, err := h.payments.Renew(c.Request.Context(), id, paymentID)
	if err != nil {
		respondError(c, "renew payment", err)
		return
	}
	c.JSON(http.StatusOK, models.NewPaymentResponse(payment))
}

// PaymentReceipt - GET /api/payments/:id/receipt
// PDF-квитанция оплаченного платежа
func (h *Handlers) PaymentReceipt(c *gin.Context) {
	id, ok := actor(c)
	if !ok {
		return
	}
	paymentID, ok := pathID(c)
	if !ok {
		return
	}

	pdf, err := h.payments.Receipt(c.Request.Context(), id, paymentID)
	if err != nil {
		respondError(c, "render receipt", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", receipt.Filename(paymentID)))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
