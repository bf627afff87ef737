// Package config loads service settings from the environment and an
// optional config file.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the service.
type Config struct {
	AppPort     string
	DBDriver    string
	DatabaseDSN string

	JWTSecret string
	JWTExpiry time.Duration

	RabbitMQURL   string
	RabbitMQQueue string

	RedisAddr                string
	RedisPassword            string
	SubmitRateLimitPerMinute int
	AuthRateLimitPerMinute   int

	LogLevel  string
	LogFormat string

	ProtectAdminRoutes bool
	SeedDemo           bool
	Location           *time.Location
}

// SetDefaults registers the default for every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "formflow.db")
	v.SetDefault("JWT_SECRET", "default_secret")
	v.SetDefault("JWT_EXPIRY", "1h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "formflow_events")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("SUBMIT_RATE_LIMIT_PER_MINUTE", 60)
	v.SetDefault("AUTH_RATE_LIMIT_PER_MINUTE", 20)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("PROTECT_ADMIN_ROUTES", false)
	v.SetDefault("SEED_DEMO", false)
	v.SetDefault("TIMEZONE", "Local")
}

// Load reads configuration from environment variables and, when
// CONFIG_FILE is set, from that file. Environment values win.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	driver := strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER")))
	if driver != "sqlite" && driver != "postgres" {
		return nil, errors.Errorf("unsupported DB_DRIVER %q", driver)
	}

	expiry, err := time.ParseDuration(v.GetString("JWT_EXPIRY"))
	if err != nil {
		return nil, errors.Wrap(err, "parse JWT_EXPIRY")
	}
	if expiry <= 0 {
		return nil, errors.New("JWT_EXPIRY must be positive")
	}

	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, errors.Wrap(err, "load TIMEZONE")
	}

	return &Config{
		AppPort:                  v.GetString("APP_PORT"),
		DBDriver:                 driver,
		DatabaseDSN:              v.GetString("DATABASE_DSN"),
		JWTSecret:                v.GetString("JWT_SECRET"),
		JWTExpiry:                expiry,
		RabbitMQURL:              v.GetString("RABBITMQ_URL"),
		RabbitMQQueue:            v.GetString("RABBITMQ_QUEUE"),
		RedisAddr:                strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:            v.GetString("REDIS_PASSWORD"),
		SubmitRateLimitPerMinute: v.GetInt("SUBMIT_RATE_LIMIT_PER_MINUTE"),
		AuthRateLimitPerMinute:   v.GetInt("AUTH_RATE_LIMIT_PER_MINUTE"),
		LogLevel:                 v.GetString("LOG_LEVEL"),
		LogFormat:                v.GetString("LOG_FORMAT"),
		ProtectAdminRoutes:       v.GetBool("PROTECT_ADMIN_ROUTES"),
		SeedDemo:                 v.GetBool("SEED_DEMO"),
		Location:                 loc,
	}, nil
}
