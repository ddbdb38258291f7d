package consumers

import (
	"context"
	"log/slog"

	"github.com/nats-io/stan.go"

	"homerent/internal/models"
)

const queueGroup = "consumers"

// Subscriber is the part of messaging.NATSClient the consumers need
type Subscriber interface {
	SubscribeQueue(subject, queue string, handler stan.MsgHandler) (stan.Subscription, error)
}

// Job is a background sweep with Start/Stop semantics
type Job interface {
	Start(ctx context.Context)
	Stop()
}

type ConsumerService struct {
	subscriber Subscriber
	handlers   *Handlers
	jobs       []Job
	subs       []stan.Subscription
}

// NewConsumerService accepts a nil subscriber; only the jobs run then
func NewConsumerService(subscriber Subscriber, handlers *Handlers, jobs ...Job) *ConsumerService {
	return &ConsumerService{
		subscriber: subscriber,
		handlers:   handlers,
		jobs:       jobs,
	}
}

func (cs *ConsumerService) Start(ctx context.Context) error {
	if cs.subscriber != nil {
		slog.Info("Starting NATS consumers...")

		for _, subject := range models.NotificationSubjects {
			sub, err := cs.subscriber.SubscribeQueue(subject, queueGroup, cs.handlers.Handle(subject))
			if err != nil {
				cs.closeSubscriptions()
				return err
			}
			cs.subs = append(cs.subs, sub)
		}

		slog.Info("All consumers started successfully", "subjects", len(cs.subs))
	} else {
		slog.Warn("NATS is not configured, notification consumers are disabled")
	}

	for _, job := range cs.jobs {
		job.Start(ctx)
	}
	return nil
}

func (cs *ConsumerService) closeSubscriptions() {
	for _, sub := range cs.subs {
		// Close, не Unsubscribe: durable-подписка должна пережить рестарт
		if err := sub.Close(); err != nil {
			slog.Error("Error closing subscription", "error", err)
		}
	}
	cs.subs = nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	for _, job := range cs.jobs {
		job.Stop()
	}
	cs.closeSubscriptions()

	return ctx.Err()
}
