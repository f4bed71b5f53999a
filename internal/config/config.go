package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	JWTSecretKey           string        `mapstructure:"JWT_SECRET_KEY"`
	JWTAccessTokenExpires  time.Duration `mapstructure:"JWT_ACCESS_TOKEN_EXPIRES"`
	JWTRefreshTokenExpires time.Duration `mapstructure:"JWT_REFRESH_TOKEN_EXPIRES"`

	RedisURL            string `mapstructure:"REDIS_URL"`
	CacheDefaultTimeout int    `mapstructure:"CACHE_DEFAULT_TIMEOUT"`

	TaskBrokerURL     string        `mapstructure:"TASK_BROKER_URL"`
	TaskResultBackend string        `mapstructure:"TASK_RESULT_BACKEND"`
	TaskWorkers       int           `mapstructure:"TASK_WORKERS"`
	TaskResultTTL     time.Duration `mapstructure:"TASK_RESULT_TTL"`
	ReminderCron      string        `mapstructure:"REMINDER_CRON"`
	ReportCron        string        `mapstructure:"REPORT_CRON"`
	SchedulerEnabled  bool          `mapstructure:"SCHEDULER_ENABLED"`

	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	TwilioAccountSID string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `mapstructure:"TWILIO_FROM_NUMBER"`

	NotifyWebhookURL string `mapstructure:"NOTIFY_WEBHOOK_URL"`

	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"JWT_SECRET_KEY", "JWT_ACCESS_TOKEN_EXPIRES", "JWT_REFRESH_TOKEN_EXPIRES",
	"REDIS_URL", "CACHE_DEFAULT_TIMEOUT",
	"TASK_BROKER_URL", "TASK_RESULT_BACKEND", "TASK_WORKERS", "TASK_RESULT_TTL",
	"REMINDER_CRON", "REPORT_CRON", "SCHEDULER_ENABLED",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_FROM",
	"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_FROM_NUMBER",
	"NOTIFY_WEBHOOK_URL", "ADMIN_EMAIL", "ADMIN_PASSWORD",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("JWT_ACCESS_TOKEN_EXPIRES", "1h")
	v.SetDefault("JWT_REFRESH_TOKEN_EXPIRES", "720h")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("CACHE_DEFAULT_TIMEOUT", 300)
	v.SetDefault("TASK_BROKER_URL", "redis://localhost:6379/0")
	v.SetDefault("TASK_RESULT_BACKEND", "redis://localhost:6379/0")
	v.SetDefault("TASK_WORKERS", 4)
	v.SetDefault("TASK_RESULT_TTL", "24h")
	v.SetDefault("REMINDER_CRON", "0 9 * * *")
	v.SetDefault("REPORT_CRON", "0 0 1 * *")
	v.SetDefault("SCHEDULER_ENABLED", true)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("ADMIN_EMAIL", "admin@syntura.com")
	v.SetDefault("ADMIN_PASSWORD", "admin123")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

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

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// CacheTTL returns the default cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheDefaultTimeout) * time.Second
}

// Validate checks that the configuration is safe to run. The signing secret is
// always required; production additionally rejects short secrets and
// non-positive cache and worker settings.
func (c *Config) Validate() error {
	if c.JWTSecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.JWTAccessTokenExpires <= 0 || c.JWTRefreshTokenExpires <= 0 {
		return fmt.Errorf("token expiry durations must be positive")
	}

	if c.IsProduction() {
		if len(c.JWTSecretKey) < 32 {
			return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters in production, got %d", len(c.JWTSecretKey))
		}
		if c.CacheDefaultTimeout <= 0 {
			return fmt.Errorf("CACHE_DEFAULT_TIMEOUT must be positive, got %d", c.CacheDefaultTimeout)
		}
		if c.TaskWorkers <= 0 {
			return fmt.Errorf("TASK_WORKERS must be positive, got %d", c.TaskWorkers)
		}
	}

	if c.SMTPHost != "" && c.SMTPFrom == "" {
		return fmt.Errorf("SMTP_FROM is required when SMTP_HOST is set")
	}
	if c.TwilioAccountSID != "" && c.TwilioFromNumber == "" {
		return fmt.Errorf("TWILIO_FROM_NUMBER is required when TWILIO_ACCOUNT_SID is set")
	}

	return nil
}
