package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tesudeix/Yuki/internal/metrics"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent   []published
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublishJSON(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, exchange: "booking.exchange"}
	before := testutil.ToFloat64(metrics.EventsPublishedTotal.WithLabelValues("booking.confirmed", "ok"))

	err := p.PublishJSON(context.Background(), "booking.confirmed", map[string]string{"timeslot": "2024-06-01T10:00"})
	require.NoError(t, err)

	require.Len(t, ch.sent, 1)
	assert.Equal(t, "booking.exchange", ch.sent[0].exchange)
	assert.Equal(t, "booking.confirmed", ch.sent[0].key)
	assert.Equal(t, "application/json", ch.sent[0].msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.sent[0].msg.DeliveryMode)

	var body map[string]string
	require.NoError(t, json.Unmarshal(ch.sent[0].msg.Body, &body))
	assert.Equal(t, "2024-06-01T10:00", body["timeslot"])
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.EventsPublishedTotal.WithLabelValues("booking.confirmed", "ok")))
}

func TestPublishJSON_ChannelError(t *testing.T) {
	ch := &fakeChannel{err: amqp.ErrClosed}
	p := &Publisher{ch: ch, exchange: "booking.exchange"}

	err := p.PublishJSON(context.Background(), "booking.orphaned", struct{}{})
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func TestPublishJSON_Unmarshalable(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, exchange: "booking.exchange"}

	err := p.PublishJSON(context.Background(), "booking.confirmed", make(chan int))
	assert.Error(t, err)
	assert.Empty(t, ch.sent)
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch}

	assert.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestNop(t *testing.T) {
	var n Nop
	assert.NoError(t, n.PublishJSON(context.Background(), "booking.confirmed", nil))
	assert.NoError(t, n.Close())
}
