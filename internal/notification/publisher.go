package notification

import (
	"context"
	"sync"

	"homerent/internal/logger"
	"homerent/internal/metrics"
)

// Broker is the transport the publisher hands events to; *messaging.NATSClient satisfies it
type Broker interface {
	Publish(subject string, data interface{}) error
}

// Publisher отправляет уведомления асинхронно. Ошибки доставки только логируются.
type Publisher struct {
	broker Broker
	wg     sync.WaitGroup
}

// NewPublisher accepts a nil broker; events are then logged and dropped
func NewPublisher(broker Broker) *Publisher {
	return &Publisher{broker: broker}
}

func (p *Publisher) Notify(ctx context.Context, event string, payload any) {
	log := logger.WithContext(ctx).With("subject", event)

	if p.broker == nil {
		log.Debug("Notification dropped, no broker configured")
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error("Notification publish panicked", "panic", r)
			}
		}()

		err := p.broker.Publish(event, payload)
		metrics.ObserveNotification(event, err)
		if err != nil {
			log.Error("Failed to publish notification", "error", err)
			return
		}
		log.Debug("Notification published")
	}()
}

// Wait blocks until in-flight publishes finish
func (p *Publisher) Wait() {
	p.wg.Wait()
}
