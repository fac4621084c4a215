package internal

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Config struct {
	BotToken          string        `env:"BOT_TOKEN,required=true" validate:"required"`
	AdminHandle       int64         `env:"ADMIN_HANDLE,required=true" validate:"gt=0"`
	CommunityChatID   int64         `env:"COMMUNITY_CHAT_ID"`
	WebhookURL        string        `env:"WEBHOOK_URL" validate:"omitempty,url"`
	ListenAddr        string        `env:"LISTEN_ADDR,default=:8080"`
	UpdateTimeout     int           `env:"UPDATE_TIMEOUT,default=30" validate:"gt=0"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	ConnectionTimeout time.Duration `env:"CONNECTION_TIMEOUT,default=45s" validate:"gt=0"`
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL,default=30s" validate:"gt=0"`
	RevealTTL         time.Duration `env:"REVEAL_TTL,default=10m" validate:"gt=0"`
	DeliveryTimeout   time.Duration `env:"DELIVERY_TIMEOUT,default=5s" validate:"gt=0"`
	TelemetryInterval time.Duration `env:"TELEMETRY_INTERVAL,default=1m" validate:"gt=0"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
}

// Validate checks field constraints plus the cross-field rule that bounds
// worst-case eviction latency: a sweep interval at or above the connection
// timeout would let a stale waiter linger a full extra interval.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.SweepInterval >= c.ConnectionTimeout {
		return fmt.Errorf(
			"SWEEP_INTERVAL (%s) must be strictly smaller than CONNECTION_TIMEOUT (%s)",
			c.SweepInterval, c.ConnectionTimeout,
		)
	}
	return nil
}
