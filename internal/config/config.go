package config

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// Params holds the raw, unvalidated settings. Values come from the
// environment first and may be overridden by command-line flags.
type Params struct {
	ServerAddr     string        `env:"GOCHAT_ADDR" envDefault:"localhost:8000"`
	DatabaseDSN    string        `env:"GOCHAT_DSN" envDefault:"host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"`
	SigningKey     string        `env:"GOCHAT_SIGNING_KEY"`
	AllowedOrigins []string      `env:"GOCHAT_ALLOWED_ORIGINS" envSeparator:","`
	UploadDir      string        `env:"GOCHAT_UPLOAD_DIR" envDefault:"uploads"`
	PublicURL      string        `env:"GOCHAT_PUBLIC_URL" envDefault:"http://localhost:8000"`
	TokenTTL       time.Duration `env:"GOCHAT_TOKEN_TTL" envDefault:"720h"`
	Migrate        bool          `env:"GOCHAT_MIGRATE" envDefault:"true"`
}

type Config struct {
	DatabaseDSN    string
	ServerAddr     string
	SigningKey     []byte
	AllowedOrigins []string
	UploadDir      string
	PublicURL      *url.URL
	TokenTTL       time.Duration
	Migrate        bool
}

// ParseEnv loads Params from environment variables.
func ParseEnv() (Params, error) {
	var p Params
	if err := env.Parse(&p); err != nil {
		return Params{}, fmt.Errorf("parse env: %w", err)
	}
	return p, nil
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("empty signing key")
	}
	return key, nil
}

func NewConfig(p Params) (*Config, error) {
	if p.ServerAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if p.DatabaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if p.SigningKey == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}
	if p.UploadDir == "" {
		return nil, fmt.Errorf("upload directory cannot be empty")
	}
	if p.TokenTTL <= 0 {
		return nil, fmt.Errorf("token TTL must be positive")
	}

	publicURL, err := url.Parse(p.PublicURL)
	if err != nil {
		return nil, fmt.Errorf("parse public URL: %w", err)
	}
	if publicURL.Scheme == "" || publicURL.Host == "" {
		return nil, fmt.Errorf("public URL must be absolute")
	}

	// Decode the base64 encoded signing secret
	signingKey, err := decodeSigningSecret(p.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	return &Config{
		DatabaseDSN:    p.DatabaseDSN,
		ServerAddr:     p.ServerAddr,
		SigningKey:     signingKey,
		AllowedOrigins: p.AllowedOrigins,
		UploadDir:      p.UploadDir,
		PublicURL:      publicURL,
		TokenTTL:       p.TokenTTL,
		Migrate:        p.Migrate,
	}, nil
}
