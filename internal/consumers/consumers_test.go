package consumers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/nats-io/stan.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homerent/internal/models"
)

func TestProcessLogsKnownEvent(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandlers(slog.New(slog.NewJSONHandler(&buf, nil)))

	data, err := json.Marshal(models.BookingCancelledEvent{BookingID: 5, AccommodationID: 2, CancelledBy: 9, Timestamp: time.Now()})
	require.NoError(t, err)

	require.NoError(t, h.process(models.EventBookingCancelled, data))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Notification received", line["msg"])
	assert.Equal(t, models.EventBookingCancelled, line["subject"])
}

func TestProcessRejectsMalformedPayload(t *testing.T) {
	h := NewHandlers(nil)

	assert.Error(t, h.process(models.EventPaymentSucceeded, []byte("{not json")))
	assert.Error(t, h.process("seat.selected", []byte("{}")))
}

func TestEverySubjectHasPayloadType(t *testing.T) {
	for _, subject := range models.NotificationSubjects {
		_, ok := newEvent(subject)
		assert.True(t, ok, subject)
	}
}

type fakeSubscription struct {
	stan.Subscription
	closed bool
}

func (s *fakeSubscription) Close() error {
	s.closed = true
	return nil
}

type fakeSubscriber struct {
	subjects []string
	subs     []*fakeSubscription
	failOn   string
}

func (f *fakeSubscriber) SubscribeQueue(subject, queue string, _ stan.MsgHandler) (stan.Subscription, error) {
	if subject == f.failOn {
		return nil, errors.New("nats: timeout")
	}
	f.subjects = append(f.subjects, subject+"/"+queue)
	sub := &fakeSubscription{}
	f.subs = append(f.subs, sub)
	return sub, nil
}

type fakeJob struct {
	started, stopped bool
}

func (j *fakeJob) Start(context.Context) { j.started = true }
func (j *fakeJob) Stop()                 { j.stopped = true }

func TestConsumerServiceLifecycle(t *testing.T) {
	subscriber := &fakeSubscriber{}
	job := &fakeJob{}
	cs := NewConsumerService(subscriber, NewHandlers(nil), job)

	require.NoError(t, cs.Start(context.Background()))
	assert.Len(t, subscriber.subjects, len(models.NotificationSubjects))
	assert.Contains(t, subscriber.subjects, models.EventAccommodationReleased+"/"+queueGroup)
	assert.True(t, job.started)

	require.NoError(t, cs.Shutdown(context.Background()))
	assert.True(t, job.stopped)
	for _, sub := range subscriber.subs {
		assert.True(t, sub.closed)
	}
}

func TestConsumerServiceSubscribeFailure(t *testing.T) {
	subscriber := &fakeSubscriber{failOn: models.EventPaymentSucceeded}
	job := &fakeJob{}
	cs := NewConsumerService(subscriber, NewHandlers(nil), job)

	assert.Error(t, cs.Start(context.Background()))
	assert.False(t, job.started)
	for _, sub := range subscriber.subs {
		assert.True(t, sub.closed)
	}
}

func TestConsumerServiceWithoutNATS(t *testing.T) {
	job := &fakeJob{}
	cs := NewConsumerService(nil, NewHandlers(nil), job)

	require.NoError(t, cs.Start(context.Background()))
	assert.True(t, job.started)
}
