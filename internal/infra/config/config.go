package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"cybercrush-seeder/internal/domain"
)

// AppConfig описывает конфигурацию загрузчика.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`

	PGDSN  string `envconfig:"PG_DSN"`
	Pepper string `envconfig:"DATABASE_PASSWORD_PEPPER"`

	Limits struct {
		MaxUsernameLength   int `envconfig:"MAX_USERNAME_LENGTH" default:"32"`
		MaxPasswordLength   int `envconfig:"MAX_PASSWORD_LENGTH" default:"64"`
		MaxExtraDataLength  int `envconfig:"MAX_EXTRA_DATA_LENGTH" default:"2048"`
		MaxGroupChatMembers int `envconfig:"MAX_GROUP_CHAT_MEMBERS" default:"32"`
	} `envconfig:""`

	Redis struct {
		Addr      string        `envconfig:"REDIS_ADDR"`
		LockKey   string        `envconfig:"SEED_LOCK_KEY" default:"seed:lock"`
		LockTTL   time.Duration `envconfig:"SEED_LOCK_TTL" default:"10m"`
		ReportKey string        `envconfig:"SEED_REPORT_KEY" default:"seed:reports"`
	} `envconfig:""`

	Metrics struct {
		Addr     string `envconfig:"METRICS_ADDR"`
		Textfile string `envconfig:"METRICS_TEXTFILE"`
	} `envconfig:""`
}

// Process читает окружение без проверки обязательных значений.
func Process() (AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, &domain.ConfigurationError{Key: "env", Reason: fmt.Sprintf("cannot be processed: %v", err)}
	}
	return cfg, nil
}

// Load загружает конфиг из окружения и проверяет обязательные значения.
func Load() (AppConfig, error) {
	cfg, err := Process()
	if err != nil {
		return AppConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate проверяет конфиг до открытия подключения к БД.
func (c AppConfig) Validate() error {
	if c.PGDSN == "" {
		return &domain.ConfigurationError{Key: "PG_DSN", Reason: "is required"}
	}
	return c.Settings().Validate()
}

// Settings возвращает неизменяемые параметры запуска.
func (c AppConfig) Settings() domain.Settings {
	return domain.Settings{
		Pepper: c.Pepper,
		Limits: domain.Limits{
			MaxUsernameLength:   c.Limits.MaxUsernameLength,
			MaxPasswordLength:   c.Limits.MaxPasswordLength,
			MaxExtraDataLength:  c.Limits.MaxExtraDataLength,
			MaxGroupChatMembers: c.Limits.MaxGroupChatMembers,
		},
	}
}
