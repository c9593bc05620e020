package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HttpPort      uint16        `envconfig:"ASTHMA_HTTP_PORT" default:"8080" required:"true"`
	BaseURL       string        `envconfig:"ASTHMA_BASE_URL" default:"http://localhost:8501"`
	Timezone      string        `envconfig:"ASTHMA_TIMEZONE" default:"Asia/Bangkok"`
	GreenPercent  int           `envconfig:"ASTHMA_ZONE_GREEN_PERCENT" default:"80"`
	YellowPercent int           `envconfig:"ASTHMA_ZONE_YELLOW_PERCENT" default:"50"`
	CacheTTL      time.Duration `envconfig:"ASTHMA_CACHE_TTL" default:"60s"`
	CacheSize     int           `envconfig:"ASTHMA_CACHE_SIZE" default:"1024"`
	RedisAddress  string        `envconfig:"ASTHMA_REDIS_ADDRESS"`
	RedisPassword string        `envconfig:"ASTHMA_REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"ASTHMA_REDIS_DB" default:"0"`
}

func New() *Config {
	return &Config{}
}

func (c *Config) LoadFromEnv() error {
	return envconfig.Process("", c)
}

// NewConfig loads the service configuration from the environment
func NewConfig() (*Config, error) {
	cfg := New()
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("could not load service configuration: %w", err)
	}
	if cfg.YellowPercent <= 0 || cfg.YellowPercent >= cfg.GreenPercent {
		return nil, fmt.Errorf("yellow zone percent %d must be between 0 and green zone percent %d", cfg.YellowPercent, cfg.GreenPercent)
	}
	return cfg, nil
}

// Location is the clinic's local timezone. All calendar day computations happen in it.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c *Config) ServerAddress() string {
	return fmt.Sprintf(":%d", c.HttpPort)
}
