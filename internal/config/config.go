package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Auth modes. Development trusts the X-Identity-ID header; secret verifies
// HS256 tokens with AUTH_JWT_SECRET; jwks verifies RS256 tokens against the
// key set published at AUTH_JWKS_URL.
const (
	AuthModeDevelopment = "development"
	AuthModeSecret      = "secret"
	AuthModeJWKS        = "jwks"
)

// Event drivers.
const (
	EventsNone  = "none"
	EventsLog   = "log"
	EventsKafka = "kafka"
	EventsMQTT  = "mqtt"
)

type Config struct {
	Port               string        `mapstructure:"PORT"`
	Env                string        `mapstructure:"ENV"`
	Timezone           string        `mapstructure:"PORTAL_TIMEZONE"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	DBSchema           string        `mapstructure:"DB_SCHEMA"`
	DBMaxConns         int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32         `mapstructure:"DB_MIN_CONNS"`
	DBStatementTimeout time.Duration `mapstructure:"DB_STATEMENT_TIMEOUT"`
	RedisURL           string        `mapstructure:"REDIS_URL"`
	ProfileCacheTTL    time.Duration `mapstructure:"PROFILE_CACHE_TTL"`
	AuthMode           string        `mapstructure:"AUTH_MODE"`
	AuthJWTSecret      string        `mapstructure:"AUTH_JWT_SECRET"`
	AuthJWKSURL        string        `mapstructure:"AUTH_JWKS_URL"`
	AuthIssuer         string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience       string        `mapstructure:"AUTH_AUDIENCE"`
	CORSOrigins        []string      `mapstructure:"-"`
	RateLimitRPS       float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int           `mapstructure:"RATE_LIMIT_BURST"`
	EventsDriver       string        `mapstructure:"EVENTS_DRIVER"`
	KafkaBrokers       []string      `mapstructure:"-"`
	KafkaTopic         string        `mapstructure:"KAFKA_TOPIC"`
	MQTTBroker         string        `mapstructure:"MQTT_BROKER"`
	MQTTTopic          string        `mapstructure:"MQTT_TOPIC"`
	MQTTClientID       string        `mapstructure:"MQTT_CLIENT_ID"`
	MQTTUsername       string        `mapstructure:"MQTT_USERNAME"`
	MQTTPassword       string        `mapstructure:"MQTT_PASSWORD"`
	ReminderCron       string        `mapstructure:"REMINDER_CRON"`
	TLSEnabled         bool          `mapstructure:"TLS_ENABLED"`
	TLSCertFile        string        `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile         string        `mapstructure:"TLS_KEY_FILE"`
}

var keys = []string{
	"PORT", "ENV", "PORTAL_TIMEZONE",
	"DATABASE_URL", "DB_SCHEMA", "DB_MAX_CONNS", "DB_MIN_CONNS", "DB_STATEMENT_TIMEOUT",
	"REDIS_URL", "PROFILE_CACHE_TTL",
	"AUTH_MODE", "AUTH_JWT_SECRET", "AUTH_JWKS_URL", "AUTH_ISSUER", "AUTH_AUDIENCE",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"EVENTS_DRIVER", "KAFKA_BROKERS", "KAFKA_TOPIC", "MQTT_BROKER", "MQTT_TOPIC", "MQTT_CLIENT_ID",
	"MQTT_USERNAME", "MQTT_PASSWORD",
	"REMINDER_CRON",
	"TLS_ENABLED", "TLS_CERT_FILE", "TLS_KEY_FILE",
}

// Load reads configuration from the environment. Each of envFiles (default
// ".env") is loaded first if present; variables already set in the process
// environment win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("PORTAL_TIMEZONE", "UTC")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_STATEMENT_TIMEOUT", "10s")
	v.SetDefault("PROFILE_CACHE_TTL", "15m")
	v.SetDefault("AUTH_MODE", "")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("EVENTS_DRIVER", EventsLog)
	v.SetDefault("KAFKA_TOPIC", "portal.events")
	v.SetDefault("MQTT_TOPIC", "portal/events")
	v.SetDefault("MQTT_CLIENT_ID", "portal-server")
	v.SetDefault("REMINDER_CRON", "0 8 * * *")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.KafkaBrokers = splitList(v.GetString("KAFKA_BROKERS"))

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedAuthMode returns AUTH_MODE when set. Otherwise development
// environments use header identities, and other environments pick JWKS
// over a shared secret when both are configured.
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return AuthModeDevelopment
	}
	if c.AuthJWKSURL != "" {
		return AuthModeJWKS
	}
	return AuthModeSecret
}

// Location returns the timezone used to decide what "today" is.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks that the configuration is safe to serve with.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch mode := c.ResolvedAuthMode(); mode {
	case AuthModeDevelopment:
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE=development is not allowed in production")
		}
	case AuthModeSecret:
		if c.AuthJWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET must be set when AUTH_MODE is %q (ENV=%q)", mode, c.Env)
		}
		if len(c.AuthJWTSecret) < 32 {
			return fmt.Errorf("AUTH_JWT_SECRET must be at least 32 bytes, got %d", len(c.AuthJWTSecret))
		}
	case AuthModeJWKS:
		if c.AuthJWKSURL == "" {
			return fmt.Errorf("AUTH_JWKS_URL must be set when AUTH_MODE is %q", mode)
		}
	default:
		return fmt.Errorf("AUTH_MODE must be %q, %q or %q, got %q",
			AuthModeDevelopment, AuthModeSecret, AuthModeJWKS, mode)
	}

	switch c.EventsDriver {
	case EventsNone, EventsLog:
	case EventsKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when EVENTS_DRIVER=kafka")
		}
	case EventsMQTT:
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT_BROKER is required when EVENTS_DRIVER=mqtt")
		}
	default:
		return fmt.Errorf("EVENTS_DRIVER must be one of none, log, kafka, mqtt; got %q", c.EventsDriver)
	}

	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}

	return nil
}
