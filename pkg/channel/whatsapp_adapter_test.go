package channel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventkit/pkg/channel"
)

type fakeWhatsAppGateway struct {
	calls          int
	lastTo         string
	lastBody       string
	lastTemplateID string
	lastVars       map[string]string
}

func (g *fakeWhatsAppGateway) SendMessage(ctx context.Context, to, body string) (string, error) {
	g.calls++
	g.lastTo = to
	g.lastBody = body
	return "wa-1", nil
}

func (g *fakeWhatsAppGateway) SendTemplateMessage(ctx context.Context, to, templateID string, vars map[string]string) (string, error) {
	g.calls++
	g.lastTo = to
	g.lastTemplateID = templateID
	g.lastVars = vars
	return "wa-2", nil
}

func (g *fakeWhatsAppGateway) MessageStatus(ctx context.Context, messageID string) (channel.DeliveryStatus, error) {
	return channel.StatusRead, nil
}

func TestWhatsAppAdapter_DisabledByDefault(t *testing.T) {
	t.Parallel()

	gateway := &fakeWhatsAppGateway{}
	adapter, err := channel.NewWhatsAppAdapter(gateway, channel.Config{})
	require.NoError(t, err)

	result, err := adapter.Send(context.Background(), "+4915123456789", "hello")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, channel.ErrCodeDisabled, result.ErrorCode)

	result, err = adapter.SendTemplate(context.Background(), "+4915123456789", "order_update", nil)
	require.NoError(t, err)
	assert.Equal(t, channel.ErrCodeDisabled, result.ErrorCode)

	assert.Equal(t, 0, gateway.calls)
}

func TestWhatsAppAdapter_SendTemplatePassesThroughVerbatim(t *testing.T) {
	t.Parallel()

	gateway := &fakeWhatsAppGateway{}
	adapter, err := channel.NewWhatsAppAdapter(gateway, channel.Config{WhatsAppEnabled: true})
	require.NoError(t, err)

	vars := map[string]string{"name": "Ada"}
	result, err := adapter.SendTemplate(context.Background(), "0049 151 2345 6789", "ticket_ready", vars)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "wa-2", result.MessageID)

	// The template id is not resolved locally, it goes straight to the
	// provider along with the variables.
	assert.Equal(t, "ticket_ready", gateway.lastTemplateID)
	assert.Equal(t, vars, gateway.lastVars)
	assert.Equal(t, "+4915123456789", gateway.lastTo)
}

func TestWhatsAppAdapter_RejectsMalformedNumber(t *testing.T) {
	t.Parallel()

	gateway := &fakeWhatsAppGateway{}
	adapter, err := channel.NewWhatsAppAdapter(gateway, channel.Config{WhatsAppEnabled: true})
	require.NoError(t, err)

	_, err = adapter.SendTemplate(context.Background(), "12", "ticket_ready", nil)
	assert.ErrorIs(t, err, channel.ErrInvalidPhoneNumber)
	assert.Equal(t, 0, gateway.calls)
}
