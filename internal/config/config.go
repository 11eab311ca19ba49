package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	AppURL    string `env:"APP_URL" default:"http://localhost:8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// Liveness tuning. The sweep evicts connections whose last activity is
	// older than IdleTimeout; the heartbeat pings each connection on its own
	// schedule regardless of sweep timing.
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL" default:"30s"`
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL" default:"30s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" default:"5m"`

	// Admission limits for new WebSocket connections.
	MaxConnections       int64   `env:"MAX_CONNECTIONS" default:"10000"`
	MaxConnectionsPerIP  int     `env:"MAX_CONNECTIONS_PER_IP" default:"100"`
	ConnectionRatePerIP  float64 `env:"CONNECTION_RATE_PER_IP" default:"10"`
	ConnectionBurstPerIP int     `env:"CONNECTION_BURST_PER_IP" default:"20"`

	MaxMessageSize int64 `env:"MAX_MESSAGE_SIZE" default:"65536"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	durations := map[string]time.Duration{
		"HEARTBEAT_INTERVAL": cfg.HeartbeatInterval,
		"SWEEP_INTERVAL":     cfg.SweepInterval,
		"IDLE_TIMEOUT":       cfg.IdleTimeout,
	}
	for name, value := range durations {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if cfg.IdleTimeout <= cfg.SweepInterval {
		return fmt.Errorf("IDLE_TIMEOUT (%v) must be greater than SWEEP_INTERVAL (%v)", cfg.IdleTimeout, cfg.SweepInterval)
	}

	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("MAX_CONNECTIONS must be positive")
	}
	if cfg.MaxConnectionsPerIP <= 0 {
		return fmt.Errorf("MAX_CONNECTIONS_PER_IP must be positive")
	}
	if cfg.ConnectionRatePerIP <= 0 {
		return fmt.Errorf("CONNECTION_RATE_PER_IP must be positive")
	}
	if cfg.MaxMessageSize <= 0 {
		return fmt.Errorf("MAX_MESSAGE_SIZE must be positive")
	}

	return nil
}
