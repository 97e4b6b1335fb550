package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port int `yaml:"port" env:"PORT"`
}

type DatabaseConfig struct {
	DSN string `yaml:"url" env:"DATABASE_URL"`
}

type AuthConfig struct {
	AccessSecret     string `yaml:"access_secret" env:"ACCESS_TOKEN_SECRET"`
	AccessTTLMinutes int    `yaml:"access_ttl_minutes" env:"ACCESS_TOKEN_TTL_MINUTES"`
	ResetSecret      string `yaml:"reset_secret" env:"RESET_TOKEN_SECRET"`
	BcryptCost       int    `yaml:"bcrypt_cost" env:"BCRYPT_COST"`
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort     int    `yaml:"smtp_port" env:"SMTP_PORT"`
	SMTPUser     string `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPassword string `yaml:"smtp_password" env:"SMTP_PASSWORD"`
	FromEmail    string `yaml:"from_email" env:"SMTP_FROM"`
}

type FilesConfig struct {
	RootDir string `yaml:"root_dir" env:"FILES_ROOT"`
}

type TelegramConfig struct {
	BotToken    string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	AlertChatID int64  `yaml:"alert_chat_id" env:"TELEGRAM_ALERT_CHAT_ID"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Email    EmailConfig    `yaml:"email"`
	Files    FilesConfig    `yaml:"files"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// AccessTTL returns the configured access token lifetime.
func (c *AuthConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMinutes) * time.Minute
}

// LoadConfig reads config/config.yaml (if present) and then applies
// environment overrides. The result is read-only after startup.
func LoadConfig() (*Config, error) {
	var cfg Config

	f, err := os.Open("config/config.yaml")
	if err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config.yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("open config.yaml: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Auth.AccessTTLMinutes <= 0 {
		cfg.Auth.AccessTTLMinutes = 60
	}
	if cfg.Files.RootDir == "" {
		cfg.Files.RootDir = "./public"
	}
	return &cfg, nil
}
