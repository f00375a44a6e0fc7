// Package httpapi exposes the notification service's consumed HTTP surface:
// provider delivery callbacks, device token registration, and the in-app
// notification feed.
//
//	api, err := httpapi.New(ledgerStore, registry, feedManager, cfg.CallbackSecret)
//	if err != nil {
//		return err
//	}
//	srv := httpserver.New(httpserver.WithAddr(cfg.Addr))
//	err = srv.Run(ctx, api.Router())
//
// Delivery callbacks are authenticated with an HMAC-SHA256 signature over
// the raw body bound to a timestamp, carried in the X-Callback-Signature
// and X-Callback-Timestamp headers. The callback's message id is matched
// against the delivery ledger and the corresponding entry is settled to
// SENT or FAILED.
package httpapi
