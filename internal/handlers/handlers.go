package handlers

import (
	"context"
	"net/http"
	"strconv"

	errs "homerent/internal/errors"
	"homerent/internal/logger"
	"homerent/internal/middleware"
	"homerent/internal/models"
	"homerent/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type AccommodationService interface {
	Create(ctx context.Context, actor models.Identity, req *models.AccommodationRequest) (*models.Accommodation, error)
	Get(ctx context.Context, id int64) (*models.Accommodation, error)
	List(ctx context.Context, page models.Page) ([]models.Accommodation, error)
	Update(ctx context.Context, actor models.Identity, id int64, req *models.AccommodationRequest) (*models.Accommodation, error)
	Delete(ctx context.Context, actor models.Identity, id int64) error
	Search(ctx context.Context, q models.AccommodationSearchQuery, page models.Page) ([]models.Accommodation, error)
}

type BookingService interface {
	Create(ctx context.Context, actor models.Identity, req *models.CreateBookingRequest) (*models.Booking, error)
	Cancel(ctx context.Context, actor models.Identity, id int64) (*models.Booking, error)
	UpdateStatus(ctx context.Context, actor models.Identity, id int64, status models.BookingStatus) (*models.Booking, error)
	UpdateDetails(ctx context.Context, actor models.Identity, id int64, req *models.UpdateBookingRequest) (*models.Booking, error)
	GetDetails(ctx context.Context, actor models.Identity, id int64) (*models.Booking, error)
	ListMine(ctx context.Context, actor models.Identity, page models.Page) ([]models.Booking, error)
	Search(ctx context.Context, actor models.Identity, userID int64, statuses []models.BookingStatus, page models.Page) ([]models.Booking, error)
}

type PaymentService interface {
	Create(ctx context.Context, actor models.Identity, bookingID int64) (*models.Payment, error)
	Success(ctx context.Context, sessionID string) (*models.Payment, error)
	Cancel(ctx context.Context, sessionID string) (*models.Payment, error)
	Renew(ctx context.Context, actor models.Identity, paymentID int64) (*models.Payment, error)
	ListByUser(ctx context.Context, actor models.Identity, userID int64, page models.Page) ([]models.Payment, error)
	Receipt(ctx context.Context, actor models.Identity, paymentID int64) ([]byte, error)
}

type UserService interface {
	Me(ctx context.Context, actor models.Identity) (*models.User, error)
	UpdateRole(ctx context.Context, actor models.Identity, userID int64, role models.Role) (*models.User, error)
	UpdateMe(ctx context.Context, actor models.Identity, req *models.UpdateProfileRequest) (*models.User, error)
}

type Handlers struct {
	accommodations AccommodationService
	bookings       BookingService
	payments       PaymentService
	users          UserService
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		accommodations: services.Accommodations,
		bookings:       services.Bookings,
		payments:       services.Payments,
		users:          services.Users,
	}
}

// respondError переводит доменные ошибки в HTTP статусы; всё прочее - 500 без подробностей
func respondError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.IsValidation(err):
		status = http.StatusBadRequest
	case errs.IsNotFound(err):
		status = http.StatusNotFound
	case errs.IsAccessDenied(err):
		status = http.StatusForbidden
	case errs.IsInvalidState(err), errs.IsPaymentConflict(err):
		status = http.StatusConflict
	case errs.IsPaymentProvider(err):
		status = http.StatusBadRequest
	}

	log := logger.WithContext(c.Request.Context())
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		log.Error("Failed to "+op, "error", err)
		c.JSON(status, gin.H{"error": "Failed to " + op})
		return
	}
	log.Info("Request rejected", "operation", op, "status", status, "error", err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// actor достаёт аутентифицированного пользователя; политика casbin не пускает сюда анонимов
func actor(c *gin.Context) (models.Identity, bool) {
	id, ok := middleware.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return id, ok
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// parsePage читает page (с нуля) и size
func parsePage(c *gin.Context) (models.Page, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		badRequest(c, "page must be >= 0")
		return models.Page{}, false
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultPageSize)))
	if err != nil || size < 1 || size > maxPageSize {
		badRequest(c, "size must be between 1 and 100")
		return models.Page{}, false
	}
	return models.Page{Number: page, Size: size}, true
}
