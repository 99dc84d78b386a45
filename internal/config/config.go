package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"TINEGHIR_DB_PATH" envDefault:"./data/tineghir.db"`
	SessionSecret string `env:"TINEGHIR_SESSION_SECRET,required"`
	ServerHost    string `env:"TINEGHIR_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"TINEGHIR_SERVER_PORT" envDefault:"3000"`
	Env           string `env:"TINEGHIR_ENV" envDefault:"development"`
	LogLevel      string `env:"TINEGHIR_LOG_LEVEL" envDefault:"info"`
	UploadsDir    string `env:"TINEGHIR_UPLOADS_DIR" envDefault:"./uploads"`

	// Optional Redis URL for the content cache; memory cache is used when unset.
	RedisURL string `env:"TINEGHIR_REDIS_URL"`

	// Seed admin credentials, used only when the users table is empty on boot.
	AdminEmail    string `env:"TINEGHIR_ADMIN_EMAIL" envDefault:"admin@tineghir.ma"`
	AdminPassword string `env:"TINEGHIR_ADMIN_PASSWORD" envDefault:"changeme"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("TINEGHIR_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	return cfg, nil
}
