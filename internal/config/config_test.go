package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	for _, k := range []string{
		"DATABASE_URL", "DATABASE_DRIVER", "JWT_SECRET", "YCAPTCHA_SERVER_KEY",
		"SMS_EMAIL", "SMS_API_KEY", "SMS_SIGN", "REDIS_URL", "SMTP_PASSWORD",
		"LOG_LEVEL", "APP_ENV", "PORT", "SMS_DRY_RUN", "VERIFICATION_MAX_ATTEMPTS",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	writeConfig(t, "database:\n  driver: memory\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Verification.CodeTTL != 5*time.Minute || cfg.Verification.MaxAttempts != 3 {
		t.Errorf("verification = %+v", cfg.Verification)
	}
	if cfg.Auth.AccessTTL != 72*time.Hour || cfg.Auth.RefreshTTL != 15*24*time.Hour {
		t.Errorf("auth ttl = %v/%v", cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	}
	if cfg.SMS.Channel != "DIRECT" || cfg.Captcha.Timeout != 2*time.Second {
		t.Errorf("sms channel=%q captcha timeout=%v", cfg.SMS.Channel, cfg.Captcha.Timeout)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	clearEnv(t)
	writeConfig(t, strings.Join([]string{
		"server:",
		"  port: 9000",
		"database:",
		"  driver: postgres",
		"  url: postgres://file/db",
		"verification:",
		"  code_ttl: 2m",
		"  max_attempts: 5",
		"auth:",
		"  jwt_secret: from-file",
		"",
	}, "\n"))
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("VERIFICATION_MAX_ATTEMPTS", "7")
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.DSN != "postgres://env/db" {
		t.Errorf("dsn = %q, env must win", cfg.Database.DSN)
	}
	if cfg.Verification.MaxAttempts != 7 || cfg.Verification.CodeTTL != 2*time.Minute {
		t.Errorf("verification = %+v", cfg.Verification)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "from-file" {
		t.Errorf("jwt secret = %q", cfg.Auth.JWTSecret)
	}
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a missing CONFIG_PATH file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: "memory"},
			Auth:     AuthConfig{JWTSecret: "s"},
			Captcha:  CaptchaConfig{ServerKey: "k"},
			SMS:      SMSConfig{DryRun: true},
		}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := map[string]func(*Config){
		"postgres without url": func(c *Config) { c.Database.Driver = "postgres" },
		"unknown driver":       func(c *Config) { c.Database.Driver = "mysql" },
		"no jwt secret":        func(c *Config) { c.Auth.JWTSecret = "" },
		"no captcha key":       func(c *Config) { c.Captcha.ServerKey = "" },
		"live sms without key": func(c *Config) { c.SMS.DryRun = false },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}
