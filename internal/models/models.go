package models

import (
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for check-in and check-out dates
const DateLayout = "2006-01-02"

// CreateBookingRequest - модель для создания бронирования
type CreateBookingRequest struct {
	AccommodationID int64  `json:"accommodation_id" binding:"required,gt=0"`
	CheckinDate     string `json:"checkin_date" binding:"required,datetime=2006-01-02"`
	CheckoutDate    string `json:"checkout_date" binding:"required,datetime=2006-01-02"`
}

// UpdateBookingRequest - административная правка дат и объекта бронирования
type UpdateBookingRequest struct {
	AccommodationID int64  `json:"accommodation_id" binding:"required,gt=0"`
	CheckinDate     string `json:"checkin_date" binding:"required,datetime=2006-01-02"`
	CheckoutDate    string `json:"checkout_date" binding:"required,datetime=2006-01-02"`
}

// UpdateBookingStatusRequest - модель для смены статуса бронирования
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING CONFIRMED CANCELED EXPIRED"`
}

// BookingResponse - представление бронирования
type BookingResponse struct {
	ID              int64  `json:"id"`
	AccommodationID int64  `json:"accommodation_id"`
	UserID          int64  `json:"user_id"`
	CheckinDate     string `json:"checkin_date"`
	CheckoutDate    string `json:"checkout_date"`
	Status          string `json:"status"`
}

// BookingDetailsResponse - бронирование вместе с данными объекта
type BookingDetailsResponse struct {
	BookingResponse
	Accommodation *AccommodationResponse `json:"accommodation"`
}

func NewBookingResponse(b *Booking) BookingResponse {
	return BookingResponse{
		ID:              b.ID,
		AccommodationID: b.AccommodationID,
		UserID:          b.UserID,
		CheckinDate:     b.CheckinDate.Format(DateLayout),
		CheckoutDate:    b.CheckoutDate.Format(DateLayout),
		Status:          string(b.Status),
	}
}

func NewBookingDetailsResponse(b *Booking) BookingDetailsResponse {
	resp := BookingDetailsResponse{BookingResponse: NewBookingResponse(b)}
	if b.Accommodation != nil {
		acc := NewAccommodationResponse(b.Accommodation)
		resp.Accommodation = &acc
	}
	return resp
}

// CreatePaymentRequest - модель для создания платежа
type CreatePaymentRequest struct {
	BookingID int64 `json:"booking_id" binding:"required,gt=0"`
}

// PaymentResponse - представление платежа
type PaymentResponse struct {
	ID         int64           `json:"id"`
	BookingID  int64           `json:"booking_id"`
	Status     string          `json:"status"`
	SessionID  string          `json:"session_id"`
	SessionURL string          `json:"session_url"`
	Amount     decimal.Decimal `json:"amount"`
}

func NewPaymentResponse(p *Payment) PaymentResponse {
	return PaymentResponse{
		ID:         p.ID,
		BookingID:  p.BookingID,
		Status:     string(p.Status),
		SessionID:  p.SessionID,
		SessionURL: p.SessionURL,
		Amount:     p.Amount,
	}
}

// AddressRequest - адрес объекта размещения
type AddressRequest struct {
	Street     string   `json:"street" binding:"required"`
	City       string   `json:"city" binding:"required"`
	Country    string   `json:"country" binding:"required"`
	State      *string  `json:"state"`
	PostalCode *string  `json:"postal_code"`
	Latitude   *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude  *float64 `json:"longitude" binding:"omitempty,longitude"`
}

// AccommodationRequest - модель для создания и обновления объекта размещения
type AccommodationRequest struct {
	Type         string          `json:"type" binding:"required,oneof=HOUSE APARTMENT CONDO VACATION_HOME"`
	Size         string          `json:"size" binding:"required"`
	Address      AddressRequest  `json:"address"`
	Amenities    []string        `json:"amenities"`
	DailyRate    decimal.Decimal `json:"daily_rate"`
	Availability *int            `json:"availability" binding:"required,gte=0"`
}

// AccommodationResponse - представление объекта размещения
type AccommodationResponse struct {
	ID           int64           `json:"id"`
	Type         string          `json:"type"`
	Size         string          `json:"size"`
	Address      Address         `json:"address"`
	Amenities    []string        `json:"amenities"`
	DailyRate    decimal.Decimal `json:"daily_rate"`
	Availability int             `json:"availability"`
}

func NewAccommodationResponse(a *Accommodation) AccommodationResponse {
	amenities := []string(a.Amenities)
	if amenities == nil {
		amenities = []string{}
	}
	return AccommodationResponse{
		ID:           a.ID,
		Type:         string(a.Type),
		Size:         a.Size,
		Address:      a.Address,
		Amenities:    amenities,
		DailyRate:    a.DailyRate,
		Availability: a.Availability,
	}
}

// AccommodationSearchQuery - параметры поиска объектов размещения
type AccommodationSearchQuery struct {
	Text    string
	City    string
	Country string
	Type    string
	Amenity string
}

// UpdateUserRoleRequest - модель для смены роли пользователя
type UpdateUserRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=ADMIN CUSTOMER"`
}

// UpdateProfileRequest - модель для обновления собственного профиля
type UpdateProfileRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
}

// UserResponse - представление пользователя
type UserResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
	}
}
