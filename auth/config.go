package auth

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AdminPassword string        `envconfig:"ASTHMA_ADMIN_PASSWORD" required:"true"`
	SessionSecret string        `envconfig:"ASTHMA_SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"ASTHMA_SESSION_TTL" default:"12h"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	err := envconfig.Process("", cfg)
	return cfg, err
}
