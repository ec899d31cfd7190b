package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yaml"

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory". The memory store is meant for local runs.
	Driver string `yaml:"driver"`
	DSN    string `yaml:"url"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	AccessTTL    time.Duration `yaml:"access_ttl"`
	RefreshTTL   time.Duration `yaml:"refresh_ttl"`
	CookieSecure bool          `yaml:"cookie_secure"`
	CookieDomain string        `yaml:"cookie_domain"`
}

type CaptchaConfig struct {
	ServerKey string        `yaml:"server_key"`
	URL       string        `yaml:"url"`
	Timeout   time.Duration `yaml:"timeout"`
}

type SMSConfig struct {
	Email   string        `yaml:"email"`
	APIKey  string        `yaml:"api_key"`
	Sign    string        `yaml:"sign"`
	Channel string        `yaml:"channel"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	DryRun  bool          `yaml:"dry_run"`
}

type VerificationConfig struct {
	CodeTTL      time.Duration `yaml:"code_ttl"`
	MaxAttempts  int           `yaml:"max_attempts"`
	PhonePattern string        `yaml:"phone_pattern"`
}

type RateLimitConfig struct {
	RedisURL    string        `yaml:"redis_url"`
	Window      time.Duration `yaml:"window"`
	PerPhone    int           `yaml:"per_phone"`
	PerIP       int           `yaml:"per_ip"`
	BlockAgents []string      `yaml:"block_agents"`
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Environment string `yaml:"environment"`
	Level       string `yaml:"level"`
}

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Auth         AuthConfig         `yaml:"auth"`
	Captcha      CaptchaConfig      `yaml:"captcha"`
	SMS          SMSConfig          `yaml:"sms"`
	Verification VerificationConfig `yaml:"verification"`
	RateLimit    RateLimitConfig    `yaml:"ratelimit"`
	Email        EmailConfig        `yaml:"email"`
	CORS         CORSConfig         `yaml:"cors"`
	Log          LogConfig          `yaml:"log"`
}

// LoadConfig reads .env (if present), the YAML file at CONFIG_PATH (or
// config/config.yaml) and then applies environment overrides and defaults.
func LoadConfig() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is LoadConfig without validation, for tools that need only part of
// the configuration.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg := &Config{}
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && os.Getenv("CONFIG_PATH") == "":
		// env-only deployments are fine
	default:
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	applyEnv(cfg)
	setDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrideString(&cfg.Database.DSN, "DATABASE_URL")
	overrideString(&cfg.Database.Driver, "DATABASE_DRIVER")
	overrideString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	overrideString(&cfg.Captcha.ServerKey, "YCAPTCHA_SERVER_KEY")
	overrideString(&cfg.SMS.Email, "SMS_EMAIL")
	overrideString(&cfg.SMS.APIKey, "SMS_API_KEY")
	overrideString(&cfg.SMS.Sign, "SMS_SIGN")
	overrideString(&cfg.RateLimit.RedisURL, "REDIS_URL")
	overrideString(&cfg.Email.SMTPPassword, "SMTP_PASSWORD")
	overrideString(&cfg.Log.Level, "LOG_LEVEL")
	overrideString(&cfg.Log.Environment, "APP_ENV")

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SMS_DRY_RUN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.SMS.DryRun = b
		}
	}
	if v := os.Getenv("VERIFICATION_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Verification.MaxAttempts = n
		}
	}
}

func overrideString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Auth.AccessTTL <= 0 {
		cfg.Auth.AccessTTL = 72 * time.Hour
	}
	if cfg.Auth.RefreshTTL <= 0 {
		cfg.Auth.RefreshTTL = 15 * 24 * time.Hour
	}
	if cfg.Captcha.URL == "" {
		cfg.Captcha.URL = "https://smartcaptcha.yandexcloud.net/validate"
	}
	if cfg.Captcha.Timeout <= 0 {
		cfg.Captcha.Timeout = 2 * time.Second
	}
	if cfg.SMS.BaseURL == "" {
		cfg.SMS.BaseURL = "https://gate.smsaero.ru/v2"
	}
	if cfg.SMS.Channel == "" {
		cfg.SMS.Channel = "DIRECT"
	}
	if cfg.SMS.Timeout <= 0 {
		cfg.SMS.Timeout = 5 * time.Second
	}
	if cfg.Verification.CodeTTL <= 0 {
		cfg.Verification.CodeTTL = 5 * time.Minute
	}
	if cfg.Verification.MaxAttempts <= 0 {
		cfg.Verification.MaxAttempts = 3
	}
	if cfg.Verification.PhonePattern == "" {
		cfg.Verification.PhonePattern = `^(?:\+7\d{10}|\+373\d{8})$`
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = 10 * time.Minute
	}
	if cfg.RateLimit.PerPhone <= 0 {
		cfg.RateLimit.PerPhone = 5
	}
	if cfg.RateLimit.PerIP <= 0 {
		cfg.RateLimit.PerIP = 30
	}
	if cfg.RateLimit.BlockAgents == nil {
		cfg.RateLimit.BlockAgents = []string{"wget", "python", "scanner", "bot"}
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Log.Environment == "" {
		cfg.Log.Environment = "production"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("config: auth.jwt_secret is required")
	}
	if c.Captcha.ServerKey == "" {
		return errors.New("config: captcha.server_key is required")
	}
	if !c.SMS.DryRun && (c.SMS.Email == "" || c.SMS.APIKey == "") {
		return errors.New("config: sms.email and sms.api_key are required unless sms.dry_run is set")
	}
	return nil
}

func (d DatabaseConfig) Validate() error {
	switch d.Driver {
	case "postgres":
		if d.DSN == "" {
			return errors.New("config: database.url is required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown database driver %q", d.Driver)
	}
	return nil
}
