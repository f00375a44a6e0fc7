package channel

import (
	"context"
	"fmt"
)

// SMSGateway is the provider transport for SMS. The wire protocol lives
// behind this interface; adapters only deal in normalized numbers and final
// message bodies.
type SMSGateway interface {
	SendSMS(ctx context.Context, to, body string) (messageID string, err error)
	MessageStatus(ctx context.Context, messageID string) (DeliveryStatus, error)
}

// SMSAdapter sends text messages through an SMSGateway. Numbers are
// normalized to international format before any dispatch; template bodies
// come from the embedded in-process template table.
type SMSAdapter struct {
	gateway            SMSGateway
	enabled            bool
	defaultCountryCode string
}

// NewSMSAdapter creates an SMS channel adapter.
func NewSMSAdapter(gateway SMSGateway, cfg Config) (*SMSAdapter, error) {
	if gateway == nil {
		return nil, ErrGatewayNil
	}
	return &SMSAdapter{
		gateway:            gateway,
		enabled:            cfg.SMSEnabled,
		defaultCountryCode: cfg.DefaultCountryCode,
	}, nil
}

func (a *SMSAdapter) Send(ctx context.Context, to, message string) (Result, error) {
	if !a.enabled {
		return Result{ErrorCode: ErrCodeDisabled}, nil
	}

	normalized, err := NormalizePhone(to, a.defaultCountryCode)
	if err != nil {
		return Result{ErrorCode: "INVALID_RECIPIENT", Err: err}, err
	}

	messageID, err := a.gateway.SendSMS(ctx, normalized, message)
	if err != nil {
		return Result{ErrorCode: "GATEWAY_ERROR", Err: err}, err
	}
	return Result{Success: true, MessageID: messageID}, nil
}

func (a *SMSAdapter) SendTemplate(ctx context.Context, to, templateID string, vars map[string]string) (Result, error) {
	if !a.enabled {
		return Result{ErrorCode: ErrCodeDisabled}, nil
	}

	table, err := loadTemplates()
	if err != nil {
		return Result{ErrorCode: "TEMPLATE_ERROR", Err: err}, err
	}
	body, ok := table.SMS[templateID]
	if !ok {
		err := fmt.Errorf("%w: sms template %q", ErrTemplateNotFound, templateID)
		return Result{ErrorCode: "TEMPLATE_NOT_FOUND", Err: err}, err
	}

	return a.Send(ctx, to, renderTemplate(body, vars))
}

func (a *SMSAdapter) DeliveryStatus(ctx context.Context, messageID string) (DeliveryStatus, error) {
	if !a.enabled {
		return "", ErrStatusUnavailable
	}
	return a.gateway.MessageStatus(ctx, messageID)
}
