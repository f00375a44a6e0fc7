package channel

import "context"

// WhatsAppGateway is the provider transport for WhatsApp. Template messages
// are passed through verbatim: templates are pre-approved on the provider
// side and the provider validates content.
type WhatsAppGateway interface {
	SendMessage(ctx context.Context, to, body string) (messageID string, err error)
	SendTemplateMessage(ctx context.Context, to, templateID string, vars map[string]string) (messageID string, err error)
	MessageStatus(ctx context.Context, messageID string) (DeliveryStatus, error)
}

// WhatsAppAdapter sends messages through a WhatsAppGateway. Like SMS it is
// feature-flagged off by default and normalizes recipient numbers before
// dispatch.
type WhatsAppAdapter struct {
	gateway            WhatsAppGateway
	enabled            bool
	defaultCountryCode string
}

// NewWhatsAppAdapter creates a WhatsApp channel adapter.
func NewWhatsAppAdapter(gateway WhatsAppGateway, cfg Config) (*WhatsAppAdapter, error) {
	if gateway == nil {
		return nil, ErrGatewayNil
	}
	return &WhatsAppAdapter{
		gateway:            gateway,
		enabled:            cfg.WhatsAppEnabled,
		defaultCountryCode: cfg.DefaultCountryCode,
	}, nil
}

func (a *WhatsAppAdapter) Send(ctx context.Context, to, message string) (Result, error) {
	if !a.enabled {
		return Result{ErrorCode: ErrCodeDisabled}, nil
	}

	normalized, err := NormalizePhone(to, a.defaultCountryCode)
	if err != nil {
		return Result{ErrorCode: "INVALID_RECIPIENT", Err: err}, err
	}

	messageID, err := a.gateway.SendMessage(ctx, normalized, message)
	if err != nil {
		return Result{ErrorCode: "GATEWAY_ERROR", Err: err}, err
	}
	return Result{Success: true, MessageID: messageID}, nil
}

func (a *WhatsAppAdapter) SendTemplate(ctx context.Context, to, templateID string, vars map[string]string) (Result, error) {
	if !a.enabled {
		return Result{ErrorCode: ErrCodeDisabled}, nil
	}

	normalized, err := NormalizePhone(to, a.defaultCountryCode)
	if err != nil {
		return Result{ErrorCode: "INVALID_RECIPIENT", Err: err}, err
	}

	messageID, err := a.gateway.SendTemplateMessage(ctx, normalized, templateID, vars)
	if err != nil {
		return Result{ErrorCode: "GATEWAY_ERROR", Err: err}, err
	}
	return Result{Success: true, MessageID: messageID}, nil
}

func (a *WhatsAppAdapter) DeliveryStatus(ctx context.Context, messageID string) (DeliveryStatus, error) {
	if !a.enabled {
		return "", ErrStatusUnavailable
	}
	return a.gateway.MessageStatus(ctx, messageID)
}
