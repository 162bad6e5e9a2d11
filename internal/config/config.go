package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfig struct {
	CWA CWAConfig `mapstructure:"cwa"`

	// DefaultCity is shown until the user picks a city.
	DefaultCity string `mapstructure:"default_city" validate:"required"`

	// RefreshInterval enables periodic refreshes (0 = refresh on demand only).
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"gte=0"`

	HTTP  HTTPConfig  `mapstructure:"http"`
	Store StoreConfig `mapstructure:"store"`
}

type CWAConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`

	MaxRetries        int     `mapstructure:"max_retries" validate:"gte=0,lte=5"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=0"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`
}

type StoreConfig struct {
	// Path of the SQLite preference database; empty keeps preferences in memory.
	Path string `mapstructure:"path"`
}

var validate = validator.New()

// Load reads configuration from an optional config file and the environment.
// Environment variables use the key path with "." replaced by "_", e.g. CWA_API_KEY.
func Load(configPath string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetDefault("cwa.api_key", "")
	v.SetDefault("cwa.base_url", "https://opendata.cwb.gov.tw/api/v1/rest/datastore")
	v.SetDefault("cwa.timeout", "10s")
	v.SetDefault("cwa.max_retries", 0)
	v.SetDefault("cwa.requests_per_second", 2)
	v.SetDefault("cwa.burst", 2)
	v.SetDefault("default_city", "臺北市")
	v.SetDefault("refresh_interval", "0s")
	v.SetDefault("http.addr", "127.0.0.1:8080")
	v.SetDefault("store.path", "weather-card.db")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// RequireAPIKey fails when no CWA key is configured; only commands that
// call the upstream need one.
func (c *AppConfig) RequireAPIKey() error {
	if c.CWA.APIKey == "" {
		return fmt.Errorf("CWA_API_KEY is not set")
	}
	return nil
}
