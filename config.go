package accounts

import (
	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// AppConfig is the process-wide configuration, populated from the
// environment once at startup. It satisfies Config and is never mutated
// after load.
type AppConfig struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8000"`
	AppURL      string `env:"APP_URL" envDefault:"http://localhost:3000"`
	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"file:accounts.db?cache=shared"`

	SigningKey      string `env:"SIGNING_KEY,required"`
	SigningMethod   string `env:"SIGNING_METHOD" envDefault:"HS256"`
	TokenExpiration int    `env:"TOKEN_EXPIRATION_MINUTES" envDefault:"30"`
	Issuer          string `env:"TOKEN_ISSUER" envDefault:"go-accounts"`

	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassword string `env:"ADMIN_PASSWORD,required"`

	EnablePasswordReset bool `env:"ENABLE_PASSWORD_RESET" envDefault:"false"`
}

var _ Config = (*AppConfig)(nil)

// LoadConfig reads .env when present and parses the environment
func LoadConfig() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse environment configuration")
	}

	return cfg, nil
}

func (c *AppConfig) GetSigningKey() string      { return c.SigningKey }
func (c *AppConfig) GetSigningMethod() string   { return c.SigningMethod }
func (c *AppConfig) GetTokenExpiration() int    { return c.TokenExpiration }
func (c *AppConfig) GetIssuer() string          { return c.Issuer }
func (c *AppConfig) GetAdminEmail() string      { return c.AdminEmail }
func (c *AppConfig) GetAdminPassword() string   { return c.AdminPassword }
func (c *AppConfig) GetAppURL() string          { return c.AppURL }
func (c *AppConfig) PasswordResetEnabled() bool { return c.EnablePasswordReset }
