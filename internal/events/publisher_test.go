package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/vibeoracle/internal/persistence"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestRecordPublishesPass(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisher(w)
	p.now = func() time.Time { return time.Date(2025, 3, 20, 10, 30, 0, 0, time.UTC) }

	rec := persistence.PassRecord{
		ID:        "p-1",
		SessionID: "s-1",
		HourLabel: "巳",
		Results:   []persistence.ResultRecord{{Rank: 1, Candidate: "OpenAI", Score: 76.25}},
	}
	require.NoError(t, p.Record(context.Background(), rec))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "s-1", string(msg.Key))
	assert.Equal(t, "type", msg.Headers[0].Key)

	var ev Event
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, EventPassCompleted, ev.Type)
	assert.Equal(t, "p-1", ev.Pass.ID)
	assert.Equal(t, "OpenAI", ev.Pass.Results[0].Candidate)
	assert.Equal(t, 2025, ev.OccurredAt.Year())

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestRecordKeysByPassWithoutSession(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewPublisher(w).Record(context.Background(), persistence.PassRecord{ID: "p-9"}))
	assert.Equal(t, "p-9", string(w.msgs[0].Key))
}

func TestRecordWrapsWriterError(t *testing.T) {
	boom := errors.New("leader not available")
	err := NewPublisher(&fakeWriter{err: boom}).Record(context.Background(), persistence.PassRecord{ID: "p-1"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "events", NewPublisher(&fakeWriter{}).Name())
}

func TestNewKafkaPublisherValidates(t *testing.T) {
	_, err := NewKafkaPublisher(Config{Topic: "passes"})
	assert.Error(t, err)

	_, err = NewKafkaPublisher(Config{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)

	p, err := NewKafkaPublisher(Config{Brokers: []string{"localhost:9092"}, Topic: "passes", WriteTimeout: time.Second})
	require.NoError(t, err)
	assert.NotNil(t, p)
}
