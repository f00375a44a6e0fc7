package mailqueue_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventkit/pkg/email"
	"github.com/dmitrymomot/eventkit/pkg/mailqueue"
)

type captureSender struct {
	mu   sync.Mutex
	sent []email.SendEmailParams
}

func (s *captureSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, params)
	return nil
}

func (s *captureSender) all() []email.SendEmailParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]email.SendEmailParams(nil), s.sent...)
}

func TestDefaultHandlers_CoverEveryJobType(t *testing.T) {
	t.Parallel()

	handlers := mailqueue.DefaultHandlers(&captureSender{})

	names := make(map[string]bool, len(handlers))
	for _, h := range handlers {
		require.False(t, names[h.Name()], "duplicate handler for %s", h.Name())
		names[h.Name()] = true
	}

	// Handler names must match what Enqueue derives for each payload type,
	// otherwise enqueued jobs would never find their handler.
	payloads := []any{
		mailqueue.PlainEmail{},
		mailqueue.ReservationCreatedEmail{},
		mailqueue.PaymentReceiptEmail{},
		mailqueue.ExpiryWarningEmail{},
		mailqueue.ReservationExpiredEmail{},
		mailqueue.CertificateIssuedEmail{},
		mailqueue.RefundApprovedEmail{},
		mailqueue.SessionChangedEmail{},
		mailqueue.CourtesyGrantedEmail{},
		mailqueue.WaitlistInviteEmail{},
		mailqueue.TicketTransferredEmail{},
		mailqueue.EventReminderEmail{},
	}
	require.Len(t, handlers, len(payloads))

	storage := mailqueue.NewMemoryStorage()
	enqueuer, err := mailqueue.NewEnqueuer(storage)
	require.NoError(t, err)

	for _, p := range payloads {
		require.NoError(t, enqueuer.Enqueue(context.Background(), p))
	}
	for _, job := range storage.All() {
		assert.True(t, names[job.Name], "no handler for enqueued job %s", job.Name)
	}
}

func TestDefaultHandlers_RenderExpiryWarning(t *testing.T) {
	t.Parallel()

	sender := &captureSender{}
	handlers := mailqueue.DefaultHandlers(sender)

	payload, err := json.Marshal(mailqueue.ExpiryWarningEmail{
		To:            "ada@example.com",
		AttendeeName:  "Ada",
		EventName:     "GopherCon",
		ReservationID: "res-1",
		MinutesLeft:   15,
	})
	require.NoError(t, err)

	var handler mailqueue.Handler
	for _, h := range handlers {
		if h.Name() == "mailqueue.ExpiryWarningEmail" {
			handler = h
		}
	}
	require.NotNil(t, handler)

	require.NoError(t, handler.Handle(context.Background(), payload))

	sent := sender.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "ada@example.com", sent[0].SendTo)
	assert.Equal(t, "Your hold at GopherCon expires in 15 minutes", sent[0].Subject)
	assert.Contains(t, sent[0].BodyHTML, "Ada")
	assert.Contains(t, sent[0].BodyHTML, "15 minutes")
	assert.Equal(t, "expiry-warning", sent[0].Tag)
}

func TestDefaultHandlers_EndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := mailqueue.NewMemoryStorage()
	enqueuer, err := mailqueue.NewEnqueuer(storage)
	require.NoError(t, err)

	sender := &captureSender{}
	worker, err := mailqueue.NewWorker(storage, mailqueue.WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	worker.RegisterHandlers(mailqueue.DefaultHandlers(sender)...)

	require.NoError(t, enqueuer.Enqueue(ctx, mailqueue.PaymentReceiptEmail{
		To:           "ada@example.com",
		AttendeeName: "Ada",
		EventName:    "GopherCon",
		AmountCents:  12550,
		Currency:     "USD",
	}))

	require.NoError(t, worker.Start(ctx))
	defer worker.Stop()

	require.Eventually(t, func() bool {
		return len(sender.all()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	sent := sender.all()
	assert.Equal(t, "Payment confirmed for GopherCon", sent[0].Subject)
	assert.Contains(t, sent[0].BodyHTML, "125.50 USD")
}
