// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      HTTPConfig      `yaml:"http"`
	Ops       OpsConfig       `yaml:"ops"`
	Auth      AuthConfig      `yaml:"auth"`
	DB        DBConfig        `yaml:"db"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Request time.Duration `yaml:"request" env:"REQUEST_TIMEOUT" env-default:"5s"`
}

// HTTPConfig — сетевые настройки публичного HTTP-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

// OpsConfig — сетевые настройки служебного HTTP-сервера
// (/livez, /healthz, /metrics).
type OpsConfig struct {
	Host string `yaml:"host" env:"OPS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"OPS_PORT" env-default:"9090"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// Addr возвращает адрес в формате host:port.
func (o OpsConfig) Addr() string {
	return net.JoinHostPort(o.Host, o.Port)
}

// AuthConfig содержит параметры выпуска и валидации сессионных токенов.
// SessionSecret обязателен: без него аутентификатор отклоняет любой токен
// (fail closed), поэтому запуск без секрета не имеет смысла.
type AuthConfig struct {
	SessionSecret      string        `yaml:"session_secret" env:"AUTH_SESSION_SECRET" env-required:"true"`
	SessionTTL         time.Duration `yaml:"session_ttl" env:"AUTH_SESSION_TTL" env-default:"720h"`
	AdminTokenTTL      time.Duration `yaml:"admin_token_ttl" env:"AUTH_ADMIN_TOKEN_TTL" env-default:"12h"`
	CookieName         string        `yaml:"cookie_name" env:"AUTH_COOKIE_NAME" env-default:"session_token"`
	TelegramBotToken   string        `yaml:"telegram_bot_token" env:"TELEGRAM_BOT_TOKEN" env-required:"true"`
	TelegramAuthMaxAge time.Duration `yaml:"telegram_auth_max_age" env:"TELEGRAM_AUTH_MAX_AGE" env-default:"24h"`
}

// RateLimitConfig — политика лимитера записывающих операций.
type RateLimitConfig struct {
	Limit         int           `yaml:"limit" env:"RATE_LIMIT" env-default:"5"`
	Window        time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW" env-default:"1m"`
	JanitorPeriod time.Duration `yaml:"janitor_period" env:"RATE_LIMIT_JANITOR_PERIOD" env-default:"10m"`
}

// DBConfig — настройки подключения к базе данных.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
}

// RedisConfig — настройки кэша каталога. Пустой URL выключает кэш.
type RedisConfig struct {
	RedisURL string        `yaml:"redis_url" env:"REDIS_URL"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"30s"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// ВАЖНО: после чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}
