package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	messages chan kafka.Message
	closed   bool
	mu       sync.Mutex
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.messages:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func newFakeKafka(cfg KafkaConfig) (*KafkaTransport, *fakeReader, *fakeWriter, *kafka.ReaderConfig) {
	reader := &fakeReader{messages: make(chan kafka.Message, 8)}
	writer := &fakeWriter{}
	seen := &kafka.ReaderConfig{}

	transport := NewKafkaTransport(cfg, nopLogger{})
	transport.newReader = func(rc kafka.ReaderConfig) messageReader {
		*seen = rc
		return reader
	}
	transport.newWriter = func(KafkaConfig) messageWriter { return writer }

	return transport, reader, writer, seen
}

func kafkaMessage(t *testing.T, key string, f Frame) kafka.Message {
	t.Helper()
	value, err := json.Marshal(f)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(key), Value: value}
}

func TestKafkaTransport_ReceiveFiltersByKey(t *testing.T) {
	transport, reader, _, seen := newFakeKafka(KafkaConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "booking-events",
		GroupID: "booking-sync",
	})

	conn, err := transport.Dial(context.Background(), "u1")
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "booking-sync.u1", seen.GroupID)
	assert.Equal(t, "booking-events", seen.Topic)

	reader.messages <- kafkaMessage(t, "u2", frame(EventServiceRequestAccepted, `{"requestId":"sr-9","seekerId":"u2"}`))
	reader.messages <- kafka.Message{Key: []byte("u1"), Value: []byte("not json")}
	reader.messages <- kafkaMessage(t, "u1", frame(EventServiceRequestAccepted, `{"requestId":"sr-1","seekerId":"u1"}`))

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	got, err := conn.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, EventServiceRequestAccepted, got.Event)
	assert.JSONEq(t, `{"requestId":"sr-1","seekerId":"u1"}`, string(got.Data))
}

func TestKafkaTransport_JoinPublishesWhenConfigured(t *testing.T) {
	transport, _, writer, _ := newFakeKafka(KafkaConfig{
		Brokers:   []string{"localhost:9092"},
		Topic:     "booking-events",
		JoinTopic: "booking-joins",
	})

	conn, err := transport.Dial(context.Background(), "u1")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Join(context.Background(), JoinRequest{UserID: "u1", SessionID: "s-1"}))

	require.Len(t, writer.messages, 1)
	assert.Equal(t, "u1", string(writer.messages[0].Key))

	var f Frame
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &f))
	assert.Equal(t, EventJoin, f.Event)
	assert.JSONEq(t, `{"userId":"u1","sessionId":"s-1"}`, string(f.Data))
}

func TestKafkaTransport_CloseUnblocksReceive(t *testing.T) {
	transport, reader, _, _ := newFakeKafka(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "booking-events"})

	conn, err := transport.Dial(context.Background(), "u1")
	require.NoError(t, err)

	errs := make(chan error, 1)
	go func() {
		_, err := conn.Receive(context.Background())
		errs <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, conn.Close())

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrConnClosed)
	case <-time.After(waitTimeout):
		t.Fatal("Receive did not return after Close")
	}

	reader.mu.Lock()
	assert.True(t, reader.closed)
	reader.mu.Unlock()
}

func TestKafkaTransport_RequiresBrokersAndTopic(t *testing.T) {
	transport := NewKafkaTransport(KafkaConfig{}, nopLogger{})

	_, err := transport.Dial(context.Background(), "u1")
	assert.Error(t, err)
}
