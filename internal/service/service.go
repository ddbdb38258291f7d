package service

import (
	"homerent/internal/repository"
)

type Services struct {
	Accommodations *AccommodationService
	Bookings       *BookingService
	Payments       *PaymentService
	Users          *UserService
}

// NewServices wires the state machines together. index may be nil when search is disabled.
func NewServices(repos *repository.Repositories, checkout CheckoutProvider, index AccommodationIndex, notifier Notifier, currency string) *Services {
	bookingService := NewBookingService(repos.Bookings, repos.Payments, repos.Accommodations, checkout, notifier)
	paymentService := NewPaymentService(repos.Payments, bookingService, checkout, notifier, currency)

	return &Services{
		Accommodations: NewAccommodationService(repos.Accommodations, index, notifier),
		Bookings:       bookingService,
		Payments:       paymentService,
		Users:          NewUserService(repos.Users),
	}
}
