package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, context.Canceled
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type recordingHandler struct {
	events []Event
	err    error
	panics bool
}

func (h *recordingHandler) Handle(ctx context.Context, evt Event) error {
	h.events = append(h.events, evt)
	if h.panics {
		panic("handler exploded")
	}
	return h.err
}

func message(t *testing.T, offset int64, evt Event) kafka.Message {
	t.Helper()
	value, err := json.Marshal(evt)
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Value: value}
}

func TestNewConsumer_Validation(t *testing.T) {
	t.Parallel()

	handler := &recordingHandler{}

	_, err := NewConsumer(nil, "notifications", "grp", handler)
	assert.ErrorIs(t, err, ErrNoBrokers)

	_, err = NewConsumer([]string{"localhost:9092"}, "", "grp", handler)
	assert.ErrorIs(t, err, ErrEmptyTopic)

	_, err = NewConsumer([]string{"localhost:9092"}, "notifications", "grp", nil)
	assert.ErrorIs(t, err, ErrHandlerNil)
}

func TestConsumer_DeliversDecodedEvents(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{msgs: []kafka.Message{
		message(t, 1, Event{Name: NameCertificateIssued, EntityID: "cert-1"}),
		message(t, 2, Event{Name: NameRefundApproved, EntityID: "pay-9"}),
	}}
	handler := &recordingHandler{}
	c := &Consumer{reader: reader, handler: handler, logger: testLogger()}

	require.NoError(t, c.Start(context.Background()))

	require.Len(t, handler.events, 2)
	assert.Equal(t, "cert-1", handler.events[0].EntityID)
	assert.Equal(t, "pay-9", handler.events[1].EntityID)
	assert.Equal(t, []int64{1, 2}, reader.committed)
	assert.True(t, reader.closed)
}

func TestConsumer_PoisonMessagesCommitted(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{msgs: []kafka.Message{
		{Offset: 1, Value: []byte("not json at all")},
		message(t, 2, Event{Name: NameCertificateIssued, EntityID: "cert-1"}),
	}}
	handler := &recordingHandler{}
	c := &Consumer{reader: reader, handler: handler, logger: testLogger()}

	require.NoError(t, c.Start(context.Background()))

	// The undecodable message is skipped but still committed so the
	// partition keeps moving.
	require.Len(t, handler.events, 1)
	assert.Equal(t, []int64{1, 2}, reader.committed)
}

func TestConsumer_HandlerErrorsDoNotStopLoop(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{msgs: []kafka.Message{
		message(t, 1, Event{Name: NameCertificateIssued, EntityID: "cert-1"}),
		message(t, 2, Event{Name: NameCertificateIssued, EntityID: "cert-2"}),
	}}
	handler := &recordingHandler{err: errors.New("ledger unavailable")}
	c := &Consumer{reader: reader, handler: handler, logger: testLogger()}

	require.NoError(t, c.Start(context.Background()))

	assert.Len(t, handler.events, 2)
	assert.Equal(t, []int64{1, 2}, reader.committed)
}

func TestConsumer_HandlerPanicContained(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{msgs: []kafka.Message{
		message(t, 1, Event{Name: NameCertificateIssued, EntityID: "cert-1"}),
		message(t, 2, Event{Name: NameCertificateIssued, EntityID: "cert-2"}),
	}}
	handler := &recordingHandler{panics: true}
	c := &Consumer{reader: reader, handler: handler, logger: testLogger()}

	require.NoError(t, c.Start(context.Background()))

	assert.Len(t, handler.events, 2)
	assert.Equal(t, []int64{1, 2}, reader.committed)
}
