package main

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/eventkit/pkg/channel"
)

// logGateway stands in for the SMS and WhatsApp provider transports in
// environments without provider credentials. Messages are logged, never
// sent; both channels ship feature-flagged off, so this only runs when an
// operator enables a channel without configuring its gateway.
type logGateway struct {
	logger *slog.Logger
}

func (g logGateway) SendSMS(ctx context.Context, to, body string) (string, error) {
	id := "sms-dev-" + uuid.NewString()
	g.logger.InfoContext(ctx, "sms gateway stub",
		slog.String("to", to),
		slog.String("body", body),
		slog.String("message_id", id),
	)
	return id, nil
}

func (g logGateway) SendMessage(ctx context.Context, to, body string) (string, error) {
	id := "wa-dev-" + uuid.NewString()
	g.logger.InfoContext(ctx, "whatsapp gateway stub",
		slog.String("to", to),
		slog.String("body", body),
		slog.String("message_id", id),
	)
	return id, nil
}

func (g logGateway) SendTemplateMessage(ctx context.Context, to, templateID string, vars map[string]string) (string, error) {
	id := "wa-dev-" + uuid.NewString()
	g.logger.InfoContext(ctx, "whatsapp gateway stub",
		slog.String("to", to),
		slog.String("template", templateID),
		slog.String("message_id", id),
	)
	return id, nil
}

func (g logGateway) MessageStatus(ctx context.Context, messageID string) (channel.DeliveryStatus, error) {
	return channel.StatusSent, nil
}
