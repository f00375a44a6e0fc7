package channel

// Config controls which channels are active. SMS and WhatsApp ship disabled;
// a disabled adapter answers immediately with error code DISABLED and never
// touches its gateway.
type Config struct {
	SMSEnabled         bool   `env:"CHANNEL_SMS_ENABLED" envDefault:"false"`
	WhatsAppEnabled    bool   `env:"CHANNEL_WHATSAPP_ENABLED" envDefault:"false"`
	DefaultCountryCode string `env:"CHANNEL_DEFAULT_COUNTRY_CODE" envDefault:""`
}
