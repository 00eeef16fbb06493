package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workledger/workledger-backend/pkg/logger"
)

type recordingAck struct {
	acked    bool
	requeued bool
	rejected bool
}

func (a *recordingAck) Ack(bool) error { a.acked = true; return nil }

func (a *recordingAck) Nack(_, requeue bool) error {
	a.requeued = requeue
	return nil
}

func (a *recordingAck) Reject(bool) error { a.rejected = true; return nil }

func newTestConsumer() *Consumer {
	return &Consumer{
		queueName: "test",
		handlers:  make(map[string]MessageHandler),
		logger:    logger.NewNop(),
	}
}

func encodeEvent(t *testing.T, eventType string, data interface{}) []byte {
	t.Helper()
	event, err := NewEvent(eventType, "test", "corr-1", data)
	require.NoError(t, err)
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return body
}

func TestConsumer_Dispatch_RoutesToHandler(t *testing.T) {
	c := newTestConsumer()

	var got GenerationRequestedEvent
	var correlationID string
	c.RegisterHandler(EventLedgerGenerationRequested, func(ctx context.Context, event *Event) error {
		correlationID = getCorrelationID(ctx)
		return event.UnmarshalData(&got)
	})

	ack := &recordingAck{}
	body := encodeEvent(t, EventLedgerGenerationRequested, GenerationRequestedEvent{TenantID: "t1", Month: 3, Year: 2024})
	c.Dispatch(context.Background(), body, ack)

	assert.True(t, ack.acked)
	assert.Equal(t, "t1", got.TenantID)
	assert.Equal(t, 3, got.Month)
	assert.Equal(t, "corr-1", correlationID)
}

func TestConsumer_Dispatch_UnknownTypeIsAcked(t *testing.T) {
	c := newTestConsumer()
	ack := &recordingAck{}

	c.Dispatch(context.Background(), encodeEvent(t, "something.else", map[string]string{}), ack)

	assert.True(t, ack.acked)
}

func TestConsumer_Dispatch_MalformedBodyIsRejected(t *testing.T) {
	c := newTestConsumer()
	ack := &recordingAck{}

	c.Dispatch(context.Background(), []byte("{not json"), ack)

	assert.True(t, ack.rejected)
	assert.False(t, ack.acked)
}

func TestConsumer_Dispatch_HandlerErrorRequeues(t *testing.T) {
	c := newTestConsumer()
	c.RegisterHandler(EventTenantCreated, func(context.Context, *Event) error {
		return errors.New("db down")
	})
	ack := &recordingAck{}

	c.Dispatch(context.Background(), encodeEvent(t, EventTenantCreated, TenantEvent{TenantID: "t1"}), ack)

	assert.True(t, ack.requeued)
	assert.False(t, ack.acked)
}

func TestCorrelationID_RoundTrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "abc")
	assert.Equal(t, "abc", getCorrelationID(ctx))
	assert.Empty(t, getCorrelationID(context.Background()))
}
