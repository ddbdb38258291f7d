package consumers

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/stan.go"

	"homerent/internal/metrics"
	"homerent/internal/models"
)

// Handlers - операторский канал уведомлений: каждое событие превращается в строку лога и метрику
type Handlers struct {
	log *slog.Logger
}

func NewHandlers(log *slog.Logger) *Handlers {
	if log == nil {
		log = slog.Default()
	}
	return &Handlers{log: log}
}

// newEvent returns the payload type published on a subject
func newEvent(subject string) (any, bool) {
	switch subject {
	case models.EventBookingCreated:
		return &models.BookingCreatedEvent{}, true
	case models.EventBookingCancelled:
		return &models.BookingCancelledEvent{}, true
	case models.EventAccommodationReleased:
		return &models.AccommodationReleasedEvent{}, true
	case models.EventAccommodationCreated:
		return &models.AccommodationCreatedEvent{}, true
	case models.EventPaymentSucceeded:
		return &models.PaymentSucceededEvent{}, true
	case models.EventPaymentCancelled:
		return &models.PaymentCancelledEvent{}, true
	}
	return nil, false
}

// Handle builds the stan callback for a subject. Malformed messages are acked too,
// redelivery would never fix them.
func (h *Handlers) Handle(subject string) stan.MsgHandler {
	return func(m *stan.Msg) {
		if err := h.process(subject, m.Data); err != nil {
			h.log.Error("Failed to process notification", "subject", subject, "sequence", m.Sequence, "error", err)
		}
		if err := m.Ack(); err != nil {
			h.log.Error("Failed to ack notification", "subject", subject, "sequence", m.Sequence, "error", err)
		}
	}
}

func (h *Handlers) process(subject string, data []byte) (err error) {
	defer func() { metrics.ObserveConsumed(subject, err) }()

	event, ok := newEvent(subject)
	if !ok {
		return fmt.Errorf("unknown subject %q", subject)
	}
	if err := json.Unmarshal(data, event); err != nil {
		return fmt.Errorf("failed to unmarshal %s event: %w", subject, err)
	}

	h.log.Info("Notification received", "subject", subject, "event", event)
	return nil
}
