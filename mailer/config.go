package mailer

// Config holds the SMTP server settings, populated from the environment.
// Only read when password reset is enabled.
type Config struct {
	Host        string `env:"SMTP_HOST,required"`
	Port        int    `env:"SMTP_PORT" envDefault:"587"`
	Username    string `env:"SMTP_USERNAME,required"`
	Password    string `env:"SMTP_PASSWORD,required"`
	TLSMode     string `env:"SMTP_TLS_MODE" envDefault:"tls"` // tls, starttls, or plain
	SenderEmail string `env:"SENDER_EMAIL,required"`
}
