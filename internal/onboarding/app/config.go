package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the onboarding service configuration, read from the environment
// and an optional .env file.
type Config struct {
	Port                 int           `mapstructure:"PORT"`
	Env                  string        `mapstructure:"ENV"`        // dev, staging, prod
	LogLevel             string        `mapstructure:"LOG_LEVEL"`  // debug, info, warn, error
	LogFormat            string        `mapstructure:"LOG_FORMAT"` // json, text
	ShutdownGracePeriod  time.Duration `mapstructure:"SHUTDOWN_GRACE_PERIOD"`
	HousekeepingInterval time.Duration `mapstructure:"HOUSEKEEPING_INTERVAL"`

	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"` // sqlite, postgres
	DatabaseFile   string `mapstructure:"DATABASE_FILE"`   // sqlite only
	DatabaseURL    string `mapstructure:"DATABASE_URL"`    // postgres only

	Issuer         string        `mapstructure:"AUTH_ISSUER"`
	Algorithm      string        `mapstructure:"AUTH_ALGORITHM"` // EdDSA, ES256
	NumKeys        int           `mapstructure:"AUTH_NUM_KEYS"`
	AccessTTL      time.Duration `mapstructure:"AUTH_ACCESS_TTL"`
	RefreshTTL     time.Duration `mapstructure:"AUTH_REFRESH_TTL"`
	PepperFile     string        `mapstructure:"AUTH_PEPPER_FILE"`
	BootstrapToken string        `mapstructure:"BOOTSTRAP_TOKEN"` // empty disables /v1/bootstrap

	FrontendURL         string `mapstructure:"FRONTEND_URL"`
	ConstantTimeCompare bool   `mapstructure:"VERIFICATION_CONSTANT_TIME_COMPARE"`

	MailDriver   string `mapstructure:"MAIL_DRIVER"` // log, smtp
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
	FundName     string `mapstructure:"FUND_NAME"` // shown in emails

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"` // comma separated; empty logs events instead
	EventsTopic  string `mapstructure:"EVENTS_KAFKA_TOPIC"`
	RedisURL     string `mapstructure:"REDIS_URL"` // empty keeps rate limits in memory

	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
}

// LoadConfig reads .env (if present) and the environment. Environment
// variables win over .env.
func LoadConfig() (Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	v.AutomaticEnv()

	v.SetDefault("PORT", 8080)
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SHUTDOWN_GRACE_PERIOD", "10s")
	v.SetDefault("HOUSEKEEPING_INTERVAL", "1h")

	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_FILE", "portal.db")
	v.SetDefault("DATABASE_URL", "")

	v.SetDefault("AUTH_ISSUER", "harbor-portal")
	v.SetDefault("AUTH_ALGORITHM", "EdDSA")
	v.SetDefault("AUTH_NUM_KEYS", 3)
	v.SetDefault("AUTH_ACCESS_TTL", "15m")
	v.SetDefault("AUTH_REFRESH_TTL", "168h")
	v.SetDefault("AUTH_PEPPER_FILE", "pepper")
	v.SetDefault("BOOTSTRAP_TOKEN", "")

	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("VERIFICATION_CONSTANT_TIME_COMPARE", false)

	v.SetDefault("MAIL_DRIVER", "log")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "")
	v.SetDefault("FUND_NAME", "")

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("EVENTS_KAFKA_TOPIC", "investor-onboarding")
	v.SetDefault("REDIS_URL", "")

	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("config: PORT must be between 1 and 65535")
	}

	switch c.DatabaseDriver {
	case "sqlite":
		if c.DatabaseFile == "" {
			return errors.New("config: DATABASE_FILE must be set for sqlite")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL must be set for postgres")
		}
	default:
		return fmt.Errorf("config: unknown DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	if c.Issuer == "" {
		return errors.New("config: AUTH_ISSUER must be set")
	}
	switch c.Algorithm {
	case "EdDSA", "ES256":
	default:
		return fmt.Errorf("config: unsupported AUTH_ALGORITHM %q", c.Algorithm)
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("config: AUTH_ACCESS_TTL and AUTH_REFRESH_TTL must be positive")
	}

	switch c.MailDriver {
	case "log":
	case "smtp":
		if c.SMTPHost == "" || c.MailFrom == "" {
			return errors.New("config: SMTP_HOST and MAIL_FROM must be set for smtp")
		}
	default:
		return fmt.Errorf("config: unknown MAIL_DRIVER %q", c.MailDriver)
	}

	if c.Env == "prod" && c.MailDriver == "log" {
		return errors.New("config: MAIL_DRIVER=log must not be used when ENV=prod")
	}
	return nil
}

// KafkaBrokerList splits KafkaBrokers, dropping blanks.
func (c Config) KafkaBrokerList() []string {
	var out []string
	for _, p := range strings.Split(c.KafkaBrokers, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
