package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	errs "homerent/internal/errors"
	"homerent/internal/models"
)

var tracer = otel.Tracer("homerent/internal/service")

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func requireAdmin(actor models.Identity) error {
	if !actor.IsAdmin() {
		return errs.AccessDeniedError{Msg: "operation requires administrator role"}
	}
	return nil
}

func requireBookingAccess(actor models.Identity, b *models.Booking) error {
	if !actor.CanAccess(b) {
		return errs.AccessDeniedError{Msg: "you can't access this booking"}
	}
	return nil
}

func requireSelfOrAdmin(actor models.Identity, userID int64) error {
	if actor.UserID != userID && !actor.IsAdmin() {
		return errs.AccessDeniedError{Msg: "you can't access another user's data"}
	}
	return nil
}

// parseStay validates the wire dates; checkout must be strictly after checkin
func parseStay(checkin, checkout string) (time.Time, time.Time, error) {
	in, err := time.Parse(models.DateLayout, checkin)
	if err != nil {
		return time.Time{}, time.Time{}, errs.ValidationError{Field: "checkin_date", Msg: "expected YYYY-MM-DD"}
	}
	out, err := time.Parse(models.DateLayout, checkout)
	if err != nil {
		return time.Time{}, time.Time{}, errs.ValidationError{Field: "checkout_date", Msg: "expected YYYY-MM-DD"}
	}
	if !out.After(in) {
		return time.Time{}, time.Time{}, errs.ValidationError{Field: "checkout_date", Msg: "must be after checkin_date"}
	}
	return in, out, nil
}
