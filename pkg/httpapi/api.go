package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/eventkit/pkg/binder"
	"github.com/dmitrymomot/eventkit/pkg/feed"
	"github.com/dmitrymomot/eventkit/pkg/ledger"
	"github.com/dmitrymomot/eventkit/pkg/push"
)

const defaultCallbackMaxAge = 5 * time.Minute

// API is the consumed HTTP surface of the notification service: provider
// delivery callbacks, device token registration, and the in-app feed.
type API struct {
	ledger  ledger.Ledger
	devices *push.Registry
	feed    *feed.Manager
	secret  string
	maxAge  time.Duration
	logger  *slog.Logger
	bind    func(r *http.Request, v any) error
}

// Option configures the API.
type Option func(*API)

// WithLogger sets the API logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithCallbackMaxAge bounds how old a callback signature may be.
func WithCallbackMaxAge(d time.Duration) Option {
	return func(a *API) {
		if d > 0 {
			a.maxAge = d
		}
	}
}

// New creates the API. The secret authenticates provider delivery
// callbacks.
func New(lg ledger.Ledger, devices *push.Registry, feedMgr *feed.Manager, secret string, opts ...Option) (*API, error) {
	if lg == nil {
		return nil, ErrLedgerNil
	}
	if devices == nil {
		return nil, ErrRegistryNil
	}
	if feedMgr == nil {
		return nil, ErrFeedNil
	}
	if secret == "" {
		return nil, ErrSecretEmpty
	}

	a := &API{
		ledger:  lg,
		devices: devices,
		feed:    feedMgr,
		secret:  secret,
		maxAge:  defaultCallbackMaxAge,
		logger:  slog.Default(),
		bind:    binder.JSON(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Router builds the chi router for the API.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/callbacks/delivery", a.handleDeliveryCallback)

	r.Route("/devices", func(r chi.Router) {
		r.Post("/", a.handleRegisterDevice)
		r.Delete("/{token}", a.handleUnregisterDevice)
	})

	r.Route("/users/{userID}", func(r chi.Router) {
		r.Delete("/devices", a.handleUnregisterAllDevices)
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", a.handleListNotifications)
			r.Get("/unread-count", a.handleUnreadCount)
			r.Post("/read", a.handleMarkRead)
			r.Post("/read-all", a.handleMarkAllRead)
		})
	})

	return r
}
