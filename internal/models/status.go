package models

import (
	"fmt"
	"strings"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCanceled  BookingStatus = "CANCELED"
	BookingExpired   BookingStatus = "EXPIRED"
)

// Terminal statuses no longer hold accommodation capacity
func (s BookingStatus) Terminal() bool {
	return s == BookingCanceled || s == BookingExpired
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCanceled, BookingExpired:
		return true
	}
	return false
}

func ParseBookingStatus(v string) (BookingStatus, error) {
	s := BookingStatus(strings.ToUpper(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown booking status %q", v)
	}
	return s, nil
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentCanceled PaymentStatus = "CANCELED"
	PaymentExpired  PaymentStatus = "EXPIRED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentCanceled, PaymentExpired:
		return true
	}
	return false
}

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
)

func ParseRole(v string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(v)))
	if r != RoleAdmin && r != RoleCustomer {
		return "", fmt.Errorf("unknown role %q", v)
	}
	return r, nil
}

type AccommodationType string

const (
	AccommodationHouse        AccommodationType = "HOUSE"
	AccommodationApartment    AccommodationType = "APARTMENT"
	AccommodationCondo        AccommodationType = "CONDO"
	AccommodationVacationHome AccommodationType = "VACATION_HOME"
)

func ParseAccommodationType(v string) (AccommodationType, error) {
	t := AccommodationType(strings.ToUpper(strings.TrimSpace(v)))
	switch t {
	case AccommodationHouse, AccommodationApartment, AccommodationCondo, AccommodationVacationHome:
		return t, nil
	}
	return "", fmt.Errorf("unknown accommodation type %q", v)
}
