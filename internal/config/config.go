package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL,notEmpty"`

	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`

	JWTSecret        string        `env:"JWT_SECRET,notEmpty"`
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"15m"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_EXPIRY" envDefault:"168h"`

	MinIOEndpoint       string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	MinIOPublicEndpoint string `env:"MINIO_PUBLIC_ENDPOINT"`
	MinIOAccessKey      string `env:"MINIO_ACCESS_KEY" envDefault:"minioadmin"`
	MinIOSecretKey      string `env:"MINIO_SECRET_KEY" envDefault:"minioadmin"`
	MinIOBucket         string `env:"MINIO_BUCKET" envDefault:"prodfind-media"`
	MinIOUseSSL         bool   `env:"MINIO_USE_SSL" envDefault:"false"`
	MinIOPublicUseSSL   bool   `env:"MINIO_PUBLIC_USE_SSL" envDefault:"true"`

	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	FromEmail    string `env:"FROM_EMAIL" envDefault:"noreply@example.com"`
	Domain       string `env:"DOMAIN" envDefault:"localhost:3000"`

	WebAuthnRPDisplayName string        `env:"WEBAUTHN_RP_DISPLAY_NAME" envDefault:"Prodfind"`
	WebAuthnRPID          string        `env:"WEBAUTHN_RP_ID" envDefault:"localhost"`
	WebAuthnRPOrigins     []string      `env:"WEBAUTHN_RP_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	WebAuthnSessionTTL    time.Duration `env:"WEBAUTHN_SESSION_TTL" envDefault:"5m"`

	BotCreateLimit  int64         `env:"BOT_CREATE_LIMIT" envDefault:"30"`
	BotCreateWindow time.Duration `env:"BOT_CREATE_WINDOW" envDefault:"1m"`

	LocalesPath string `env:"LOCALES_PATH" envDefault:"./locales"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MinIOPublicEndpoint == "" {
		cfg.MinIOPublicEndpoint = cfg.MinIOEndpoint
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
