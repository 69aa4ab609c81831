package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del cliente.
type Config struct {
	HTTPPort      string        `env:"HTTP_PORT" envDefault:"8080"`
	CORSOrigins   []string      `env:"CORS_ORIGINS" envSeparator:","`
	APIBaseURL    string        `env:"API_BASE_URL,required,notEmpty"`
	APITimeout    time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
	StorageDriver string        `env:"STORAGE_DRIVER" envDefault:"file"`
	StoragePath   string        `env:"STORAGE_PATH"`
	StorageSecret string        `env:"STORAGE_SECRET"`
	StorageNS     string        `env:"STORAGE_NAMESPACE" envDefault:"default"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	SyncInterval  time.Duration `env:"SYNC_INTERVAL" envDefault:"1m"`
	LoginAttempts int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginWindow   time.Duration `env:"LOGIN_WINDOW" envDefault:"10m"`
	DraftKeys     []string      `env:"DRAFT_KEYS" envSeparator:"," envDefault:"outreach_draft,outreach_draft_subject,onboarding_draft"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
