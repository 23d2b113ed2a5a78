package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketholds/pkg/logger"
)

func TestKafkaSink_PublishesEncodedEvent(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var decoded ReleaseEvent
		if err := decoded.FromJSON(val); err != nil {
			return err
		}
		want := releaseEvent("h1")
		if decoded.HoldID != want.HoldID || decoded.Quantity != want.Quantity || !decoded.Timestamp.Equal(want.Timestamp) {
			return errors.New("unexpected payload")
		}
		return nil
	})

	sink := NewKafkaSinkWithProducer(producer, "ticket-releases", logger.Discard())
	require.NoError(t, sink.Publish(context.Background(), releaseEvent("h1")))
	require.NoError(t, sink.Close())
}

func TestKafkaSink_ReturnsSendError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	sink := NewKafkaSinkWithProducer(producer, "ticket-releases", logger.Discard())
	err := sink.Publish(context.Background(), releaseEvent("h1"))
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, sink.Close())
}

// stalledProducer holds every send until unblocked
type stalledProducer struct {
	*mocks.SyncProducer
	unblock chan struct{}
}

func (p *stalledProducer) SendMessage(*sarama.ProducerMessage) (int32, int64, error) {
	<-p.unblock
	return 0, 0, sarama.ErrRequestTimedOut
}

func TestKafkaSink_PublishHonoursContextDeadline(t *testing.T) {
	producer := &stalledProducer{SyncProducer: mocks.NewSyncProducer(t, nil), unblock: make(chan struct{})}
	defer close(producer.unblock)

	sink := NewKafkaSinkWithProducer(producer, "ticket-releases", logger.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := sink.Publish(ctx, releaseEvent("h1"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestKafkaSink_PublishSkipsCancelledContext(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	sink := NewKafkaSinkWithProducer(producer, "ticket-releases", logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sink.Publish(ctx, releaseEvent("h1")), context.Canceled)
	require.NoError(t, sink.Close())
}

func TestReleaseEvent_JSONShape(t *testing.T) {
	data, err := releaseEvent("h1").ToJSON()
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"eventId": "ev-1",
		"ticketTypeId": "tt-1",
		"quantity": 2,
		"timestamp": "2026-03-01T12:00:00Z",
		"holdId": "h1",
		"reason": "expired"
	}`, string(data))
}
