package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventkit/pkg/feed"
	"github.com/dmitrymomot/eventkit/pkg/httpapi"
	"github.com/dmitrymomot/eventkit/pkg/ledger"
	"github.com/dmitrymomot/eventkit/pkg/push"
)

const testSecret = "callback-secret"

type fixture struct {
	api     *httpapi.API
	handler http.Handler
	ledger  *ledger.MemoryLedger
	tokens  *push.MemoryTokenStore
	feed    *feed.MemoryStorage
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	lg := ledger.NewMemoryLedger()
	tokens := push.NewMemoryTokenStore()
	registry, err := push.NewRegistry(tokens)
	require.NoError(t, err)

	storage := feed.NewMemoryStorage()
	manager, err := feed.NewManager(storage, nil)
	require.NoError(t, err)

	api, err := httpapi.New(lg, registry, manager, testSecret)
	require.NoError(t, err)

	return fixture{api: api, handler: api.Router(), ledger: lg, tokens: tokens, feed: storage}
}

func (f fixture) do(t *testing.T, method, path string, body any, sign bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	payload := bytes.TrimSpace(buf.Bytes())

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if sign {
		sig, ts := httpapi.SignCallback(testSecret, payload)
		req.Header.Set(httpapi.HeaderSignature, sig)
		req.Header.Set(httpapi.HeaderTimestamp, ts)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func claimWithMessageID(t *testing.T, lg *ledger.MemoryLedger, messageID string) ledger.Entry {
	t.Helper()

	entry := ledger.Entry{
		ID:         uuid.New(),
		Type:       "PAYMENT_COMPLETED",
		Channel:    ledger.ChannelSMS,
		Recipient:  "+14155552671",
		EntityType: "RESERVATION",
		EntityID:   uuid.NewString(),
		Metadata:   map[string]string{ledger.MessageIDMetadataKey: messageID},
	}
	claimed, err := lg.Claim(context.Background(), entry)
	require.NoError(t, err)
	require.True(t, claimed)
	return entry
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	lg := ledger.NewMemoryLedger()
	registry, err := push.NewRegistry(push.NewMemoryTokenStore())
	require.NoError(t, err)
	manager, err := feed.NewManager(feed.NewMemoryStorage(), nil)
	require.NoError(t, err)

	_, err = httpapi.New(nil, registry, manager, testSecret)
	assert.ErrorIs(t, err, httpapi.ErrLedgerNil)

	_, err = httpapi.New(lg, nil, manager, testSecret)
	assert.ErrorIs(t, err, httpapi.ErrRegistryNil)

	_, err = httpapi.New(lg, registry, nil, testSecret)
	assert.ErrorIs(t, err, httpapi.ErrFeedNil)

	_, err = httpapi.New(lg, registry, manager, "")
	assert.ErrorIs(t, err, httpapi.ErrSecretEmpty)
}

func TestDeliveryCallback_Delivered(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	entry := claimWithMessageID(t, fx.ledger, "sms-123")

	rec := fx.do(t, http.MethodPost, "/callbacks/delivery", map[string]string{
		"message_id": "sms-123",
		"status":     "DELIVERED",
	}, true)
	require.Equal(t, http.StatusNoContent, rec.Code)

	entries, err := fx.ledger.Find(context.Background(), entry.Key())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.StatusSent, entries[0].Status)
	assert.NotNil(t, entries[0].SentAt)
}

func TestDeliveryCallback_Failed(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	entry := claimWithMessageID(t, fx.ledger, "sms-500")

	rec := fx.do(t, http.MethodPost, "/callbacks/delivery", map[string]string{
		"message_id": "sms-500",
		"status":     "failed",
		"error_code": "30003",
	}, true)
	require.Equal(t, http.StatusNoContent, rec.Code)

	entries, err := fx.ledger.Find(context.Background(), entry.Key())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.StatusFailed, entries[0].Status)
	require.NotNil(t, entries[0].ErrorMessage)
	assert.Equal(t, "30003", *entries[0].ErrorMessage)
}

func TestDeliveryCallback_Unauthorized(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	claimWithMessageID(t, fx.ledger, "sms-123")
	body := map[string]string{"message_id": "sms-123", "status": "DELIVERED"}

	t.Run("missing signature", func(t *testing.T) {
		t.Parallel()
		rec := fx.do(t, http.MethodPost, "/callbacks/delivery", body, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong signature", func(t *testing.T) {
		t.Parallel()
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/callbacks/delivery", bytes.NewReader(payload))
		req.Header.Set(httpapi.HeaderSignature, "deadbeef")
		req.Header.Set(httpapi.HeaderTimestamp, strconv.FormatInt(time.Now().Unix(), 10))
		rec := httptest.NewRecorder()
		fx.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		t.Parallel()
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		stale := time.Now().Add(-time.Hour).Unix()
		req := httptest.NewRequest(http.MethodPost, "/callbacks/delivery", bytes.NewReader(payload))
		sig, _ := httpapi.SignCallback(testSecret, payload)
		req.Header.Set(httpapi.HeaderSignature, sig)
		req.Header.Set(httpapi.HeaderTimestamp, strconv.FormatInt(stale, 10))
		rec := httptest.NewRecorder()
		fx.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestDeliveryCallback_BadRequests(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	claimWithMessageID(t, fx.ledger, "sms-123")

	t.Run("unknown message id", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/callbacks/delivery", map[string]string{
			"message_id": "missing", "status": "DELIVERED",
		}, true)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown status", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/callbacks/delivery", map[string]string{
			"message_id": "sms-123", "status": "TELEPORTED",
		}, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/callbacks/delivery", map[string]string{"status": "DELIVERED"}, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeviceEndpoints(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	rec := fx.do(t, http.MethodPost, "/devices", map[string]string{
		"user_id":     userID.String(),
		"token":       "fcm-token-1",
		"platform":    "android",
		"provider":    "fcm",
		"device_info": "Pixel 9",
	}, false)
	require.Equal(t, http.StatusCreated, rec.Code)

	var stored push.DeviceToken
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stored))
	assert.Equal(t, userID, stored.UserID)
	assert.Equal(t, push.PlatformAndroid, stored.Platform)
	assert.Equal(t, push.ProviderFCM, stored.Provider)
	assert.True(t, stored.IsActive)

	active, err := fx.tokens.FindActiveByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, active, 1)

	rec = fx.do(t, http.MethodDelete, "/devices/fcm-token-1", nil, false)
	require.Equal(t, http.StatusNoContent, rec.Code)

	active, err = fx.tokens.FindActiveByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, active)

	rec = fx.do(t, http.MethodDelete, "/devices/never-registered", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnregisterAllDevices(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := fx.tokens.Upsert(ctx, push.DeviceToken{
			UserID:   userID,
			Token:    fmt.Sprintf("token-%d", i),
			Platform: push.PlatformIOS,
			Provider: push.ProviderAPNS,
		})
		require.NoError(t, err)
	}

	rec := fx.do(t, http.MethodDelete, "/users/"+userID.String()+"/devices", nil, false)
	require.Equal(t, http.StatusNoContent, rec.Code)

	active, err := fx.tokens.FindActiveByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, active)

	rec = fx.do(t, http.MethodDelete, "/users/not-a-uuid/devices", nil, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeedEndpoints(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	unread := feed.Notification{
		ID:     uuid.New(),
		UserID: userID,
		Type:   feed.TypeInfo,
		Title:  "Reservation confirmed",
	}
	read := feed.Notification{
		ID:     uuid.New(),
		UserID: userID,
		Type:   feed.TypeWarning,
		Title:  "Hold expiring soon",
		Read:   true,
	}
	require.NoError(t, fx.feed.Create(ctx, unread))
	require.NoError(t, fx.feed.Create(ctx, read))

	t.Run("list all", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/users/"+userID.String()+"/notifications", nil, false)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Notifications []feed.Notification `json:"notifications"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Len(t, resp.Notifications, 2)
	})

	t.Run("list unread only", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/users/"+userID.String()+"/notifications?unread=true", nil, false)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Notifications []feed.Notification `json:"notifications"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp.Notifications, 1)
		assert.Equal(t, unread.ID, resp.Notifications[0].ID)
	})

	t.Run("unread count", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/users/"+userID.String()+"/notifications/unread-count", nil, false)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"unread":1}`, rec.Body.String())
	})

	t.Run("mark read", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/users/"+userID.String()+"/notifications/read", map[string]any{
			"ids": []string{unread.ID.String()},
		}, false)
		require.Equal(t, http.StatusNoContent, rec.Code)

		count, err := fx.feed.CountUnread(ctx, userID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("mark read requires ids", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/users/"+userID.String()+"/notifications/read", map[string]any{}, false)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("mark all read", func(t *testing.T) {
		other := feed.Notification{ID: uuid.New(), UserID: userID, Type: feed.TypeInfo, Title: "Receipt"}
		require.NoError(t, fx.feed.Create(ctx, other))

		rec := fx.do(t, http.MethodPost, "/users/"+userID.String()+"/notifications/read-all", nil, false)
		require.Equal(t, http.StatusNoContent, rec.Code)

		count, err := fx.feed.CountUnread(ctx, userID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("empty list is a json array", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/users/"+uuid.NewString()+"/notifications", nil, false)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"notifications":[]}`, rec.Body.String())
	})
}
