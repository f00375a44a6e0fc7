package email

// Config holds outbound email settings. The Postmark tokens are optional so
// development environments can run on the DevSender; sender and support
// addresses are always required because they identify the system to
// recipients and route replies.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL,required"`
}
