package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/eventkit/pkg/feed"
	"github.com/dmitrymomot/eventkit/pkg/ledger"
	"github.com/dmitrymomot/eventkit/pkg/logger"
	"github.com/dmitrymomot/eventkit/pkg/push"
)

const maxCallbackBody = 1 << 20

type deliveryCallback struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	ErrorCode string `json:"error_code,omitempty"`
	Provider  string `json:"provider,omitempty"`
}

// handleDeliveryCallback processes a provider's delivery status callback.
// The raw body is read before decoding because the signature covers the
// exact bytes on the wire.
func (a *API) handleDeliveryCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if err := verifySignature(a.secret, body, r.Header.Get(HeaderSignature), r.Header.Get(HeaderTimestamp), a.maxAge); err != nil {
		a.logger.LogAttrs(r.Context(), slog.LevelWarn, "rejected delivery callback",
			logger.Error(err),
		)
		respondError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var cb deliveryCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		respondError(w, http.StatusBadRequest, "malformed callback payload")
		return
	}
	if cb.MessageID == "" || cb.Status == "" {
		respondError(w, http.StatusBadRequest, "message_id and status are required")
		return
	}

	entry, err := a.ledger.FindByMessageID(r.Context(), cb.MessageID)
	if err != nil {
		if errors.Is(err, ledger.ErrEntryNotFound) {
			respondError(w, http.StatusNotFound, "unknown message id")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to look up delivery")
		return
	}

	switch strings.ToUpper(cb.Status) {
	case "DELIVERED", "SENT":
		err = a.ledger.MarkSent(r.Context(), entry.ID)
	case "FAILED", "BOUNCED", "UNDELIVERED":
		reason := cb.ErrorCode
		if reason == "" {
			reason = strings.ToUpper(cb.Status)
		}
		err = a.ledger.MarkFailed(r.Context(), entry.ID, reason)
	default:
		respondError(w, http.StatusBadRequest, "unknown delivery status")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update delivery")
		return
	}

	a.logger.LogAttrs(r.Context(), slog.LevelInfo, "delivery callback applied",
		slog.String("message_id", cb.MessageID),
		slog.String("status", cb.Status),
		logger.Channel(entry.Channel),
	)
	w.WriteHeader(http.StatusNoContent)
}

type registerDeviceRequest struct {
	UserID     uuid.UUID `json:"user_id"`
	Token      string    `json:"token"`
	Platform   string    `json:"platform"`
	Provider   string    `json:"provider"`
	DeviceInfo string    `json:"device_info,omitempty"`
}

func (a *API) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req registerDeviceRequest
	if err := a.bind(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	stored, err := a.devices.Register(r.Context(), req.UserID, req.Token,
		push.Platform(strings.ToUpper(req.Platform)), push.ProviderName(strings.ToUpper(req.Provider)), req.DeviceInfo)
	if err != nil {
		if errors.Is(err, push.ErrInvalidToken) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to register device")
		return
	}

	respondJSON(w, http.StatusCreated, stored)
}

func (a *API) handleUnregisterDevice(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if err := a.devices.Unregister(r.Context(), token); err != nil {
		if errors.Is(err, push.ErrTokenNotFound) {
			respondError(w, http.StatusNotFound, "unknown device token")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to unregister device")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleUnregisterAllDevices(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}

	if err := a.devices.UnregisterAll(r.Context(), userID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to unregister devices")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type listNotificationsResponse struct {
	Notifications []feed.Notification `json:"notifications"`
}

func (a *API) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}

	opts := feed.ListOptions{
		Limit:      queryInt(r, "limit"),
		Offset:     queryInt(r, "offset"),
		OnlyUnread: r.URL.Query().Get("unread") == "true",
	}

	notifs, err := a.feed.List(r.Context(), userID, opts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if notifs == nil {
		notifs = []feed.Notification{}
	}
	respondJSON(w, http.StatusOK, listNotificationsResponse{Notifications: notifs})
}

func (a *API) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}

	count, err := a.feed.CountUnread(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count notifications")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"unread": count})
}

type markReadRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

func (a *API) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}

	var req markReadRequest
	if err := a.bind(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, http.StatusBadRequest, "ids are required")
		return
	}

	if err := a.feed.MarkRead(r.Context(), userID, req.IDs...); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to mark notifications read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}

	if err := a.feed.MarkAllRead(r.Context(), userID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to mark notifications read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// userID parses the {userID} path parameter, writing a 400 on failure.
func (a *API) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
