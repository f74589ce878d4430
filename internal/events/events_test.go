package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/docshelf/internal/logging"
)

type fakeWriter struct {
	msgs     []kafka.Message
	err      error
	closed   bool
	deadline bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestProducer_PublishEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}
	id := uuid.New()

	ev := UserSignedUp{Type: TypeUserSignedUp, UserID: id, Email: "a@b.c", Role: "student", At: time.Unix(0, 0).UTC()}
	require.NoError(t, p.PublishEvent(context.Background(), TopicUsers, id.String(), ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, TopicUsers, msg.Topic)
	assert.Equal(t, id.String(), string(msg.Key))

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "user_signed_up", got["type"])
	assert.Equal(t, id.String(), got["userId"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_MarshalError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{}}
	err := p.PublishEvent(context.Background(), TopicUsers, "k", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json.Marshal")
}

func TestPublishBestEffort(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.IntoContext(context.Background(), logging.NewWithWriter(&buf, "info"))

	w := &fakeWriter{err: errors.New("broker down")}
	PublishBestEffort(ctx, &Producer{writer: w}, TopicDocuments, "k", DocumentDeleted{Type: TypeDocumentDeleted})
	assert.True(t, w.deadline)
	assert.Contains(t, buf.String(), "publish_event_failed")
	assert.Contains(t, buf.String(), "broker down")

	buf.Reset()
	ok := &fakeWriter{}
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	PublishBestEffort(canceled, &Producer{writer: ok}, TopicDocuments, "k", DocumentDeleted{Type: TypeDocumentDeleted})
	assert.Len(t, ok.msgs, 1)
	assert.Empty(t, buf.String())

	PublishBestEffort(ctx, nil, TopicDocuments, "k", nil)
}

func TestNew(t *testing.T) {
	assert.IsType(t, Noop{}, New(nil))
	p := New([]string{"localhost:9092"})
	assert.IsType(t, &Producer{}, p)
	require.NoError(t, p.Close())
}
