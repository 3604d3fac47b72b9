package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	return NewHeaderCarrier(&msg.Headers).Get(key)
}

func testConfig(name string) ProducerConfig {
	cfg := DefaultProducerConfig([]string{"localhost:19092"})
	cfg.Breaker = BreakerConfig{Name: name, MaxRequests: 1, Timeout: time.Minute, FailureRatio: 0.5, MinRequests: 2}
	return cfg
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "kreedentials.store.cart.updated", Topic("store", "cart", "updated"))
	assert.Equal(t, "kreedentials", Topic())
}

func TestNewEvent(t *testing.T) {
	type payload struct {
		SessionID string `json:"session_id"`
		Units     int    `json:"units"`
	}

	e, err := NewEvent("store.cart.updated", "sess-1", "session", "store-service", payload{"sess-1", 3})
	require.NoError(t, err)

	assert.NotEmpty(t, e.EventID)
	assert.Equal(t, 1, e.Version)
	assert.WithinDuration(t, time.Now().UTC(), e.Timestamp, 2*time.Second)

	var got payload
	require.NoError(t, e.UnmarshalData(&got))
	assert.Equal(t, 3, got.Units)
}

func TestNewEvent_Unserializable(t *testing.T) {
	_, err := NewEvent("x", "a", "t", "s", make(chan int))
	require.Error(t, err)
}

func TestEvent_ChainingAndRoundTrip(t *testing.T) {
	e, err := NewEvent("store.wishlist.updated", "user-1", "session", "store-service", map[string]int{"count": 2})
	require.NoError(t, err)
	assert.Same(t, e, e.WithCorrelationID("corr-1").WithMetadata("owner", "user-1"))

	raw, err := e.Marshal()
	require.NoError(t, err)
	back, err := UnmarshalEvent(raw)
	require.NoError(t, err)

	assert.Equal(t, e.EventID, back.EventID)
	assert.Equal(t, "corr-1", back.CorrelationID)
	assert.Equal(t, "user-1", back.Metadata["owner"])
	assert.JSONEq(t, string(e.Data), string(back.Data))

	_, err = UnmarshalEvent([]byte("{broken"))
	assert.Error(t, err)
}

func TestHeaderCarrier(t *testing.T) {
	headers := []kafka.Header{{Key: "a", Value: []byte("1")}}
	c := NewHeaderCarrier(&headers)

	c.Set("a", "2")
	c.Set("b", "3")

	assert.Equal(t, "2", c.Get("a"))
	assert.Equal(t, "3", c.Get("b"))
	assert.Equal(t, "", c.Get("missing"))
	assert.ElementsMatch(t, []string{"a", "b"}, c.Keys())
}

func TestProducer_PublishWritesEnvelope(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, testConfig("publish-ok"), nil)

	e, err := NewEvent("store.cart.updated", "sess-9", "session", "store-service", map[string]int{"units": 1})
	require.NoError(t, err)
	e.WithCorrelationID("corr-9")

	require.NoError(t, p.Publish(context.Background(), "kreedentials.store.cart.updated", e))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "kreedentials.store.cart.updated", msg.Topic)
	assert.Equal(t, "sess-9", string(msg.Key))
	assert.Equal(t, "store.cart.updated", header(msg, "event_type"))
	assert.Equal(t, "corr-9", header(msg, "correlation_id"))
}

func TestProducer_PropagatesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	w := &fakeWriter{}
	p := newProducer(w, testConfig("publish-trace"), nil)
	e, _ := NewEvent("t", "a", "session", "s", nil)
	require.NoError(t, p.Publish(ctx, "topic", e))

	assert.Contains(t, header(w.messages[0], "traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")
}

func TestProducer_BreakerOpensAfterFailures(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newProducer(w, testConfig("publish-trip"), nil)
	e, _ := NewEvent("t", "a", "session", "s", nil)

	for i := 0; i < 2; i++ {
		err := p.Publish(context.Background(), "topic", e)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broker down")
	}

	assert.Equal(t, gobreaker.StateOpen, p.BreakerState())
	err := p.Publish(context.Background(), "topic", e)
	assert.ErrorIs(t, err, ErrBreakerOpen)
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, testConfig("close"), nil)
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	assert.Error(t, PingBrokers(context.Background(), nil))
}
