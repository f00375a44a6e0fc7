package feed_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventkit/pkg/feed"
)

func receiveOne(t *testing.T, sub *feed.Subscription) feed.Notification {
	t.Helper()
	select {
	case notif, ok := <-sub.C():
		require.True(t, ok, "subscription closed unexpectedly")
		return notif
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for stream notification")
		return feed.Notification{}
	}
}

func TestStreamDeliverer_DeliversToOwnUserOnly(t *testing.T) {
	t.Parallel()

	d := feed.NewStreamDeliverer()
	defer d.Close()

	alice := uuid.New()
	bob := uuid.New()
	aliceSub := d.Subscribe(context.Background(), alice)
	bobSub := d.Subscribe(context.Background(), bob)

	notif := feed.Notification{ID: uuid.New(), UserID: alice, Title: "Reservation confirmed"}
	require.NoError(t, d.Deliver(context.Background(), notif))

	got := receiveOne(t, aliceSub)
	assert.Equal(t, notif.ID, got.ID)

	select {
	case n := <-bobSub.C():
		t.Fatalf("bob received alice's notification: %v", n.ID)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestStreamDeliverer_MultipleSubscriptionsPerUser(t *testing.T) {
	t.Parallel()

	d := feed.NewStreamDeliverer()
	defer d.Close()

	userID := uuid.New()
	first := d.Subscribe(context.Background(), userID)
	second := d.Subscribe(context.Background(), userID)

	notif := feed.Notification{ID: uuid.New(), UserID: userID, Title: "Payment received"}
	require.NoError(t, d.Deliver(context.Background(), notif))

	assert.Equal(t, notif.ID, receiveOne(t, first).ID)
	assert.Equal(t, notif.ID, receiveOne(t, second).ID)
}

func TestStreamDeliverer_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	t.Parallel()

	d := feed.NewStreamDeliverer(feed.WithStreamBuffer(1))
	defer d.Close()

	userID := uuid.New()
	sub := d.Subscribe(context.Background(), userID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			_ = d.Deliver(context.Background(), feed.Notification{ID: uuid.New(), UserID: userID})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("delivery blocked on a slow subscriber")
	}

	// Exactly the buffered message survives.
	<-sub.C()
	select {
	case _, ok := <-sub.C():
		assert.False(t, ok)
	default:
	}
}

func TestStreamDeliverer_ContextEndsSubscription(t *testing.T) {
	t.Parallel()

	d := feed.NewStreamDeliverer()
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := d.Subscribe(ctx, uuid.New())
	cancel()

	select {
	case _, ok := <-sub.C():
		assert.False(t, ok, "channel should be closed after context cancellation")
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after context cancellation")
	}
}

func TestStreamDeliverer_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	d := feed.NewStreamDeliverer()
	sub := d.Subscribe(context.Background(), uuid.New())

	d.Close()
	d.Close()
	sub.Close()

	_, ok := <-sub.C()
	assert.False(t, ok)

	// Subscribing after Close yields an already-closed subscription.
	late := d.Subscribe(context.Background(), uuid.New())
	_, ok = <-late.C()
	assert.False(t, ok)
}

func TestStreamDeliverer_AsManagerDeliverer(t *testing.T) {
	t.Parallel()

	d := feed.NewStreamDeliverer()
	defer d.Close()

	storage := feed.NewMemoryStorage()
	manager, err := feed.NewManager(storage, d)
	require.NoError(t, err)

	userID := uuid.New()
	sub := d.Subscribe(context.Background(), userID)

	notif := feed.Notification{UserID: userID, Type: feed.TypeInfo, Title: "Certificate ready"}
	require.NoError(t, manager.Send(context.Background(), notif))

	got := receiveOne(t, sub)
	assert.Equal(t, "Certificate ready", got.Title)

	// Stored regardless of stream delivery.
	stored, err := storage.List(context.Background(), userID, feed.ListOptions{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
}
