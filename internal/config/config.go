package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/events"
	"github.com/Freeeeeet/trainer_scheduler/internal/policy"
	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN            string
	Environment      string
	LogLevel         string // пусто = по окружению
	TelegramToken    string // пусто = бот выключен
	HTTPAddr         string
	RedisAddr        string   // пусто = блокировки внутри процесса
	KafkaBrokers     []string // пусто = события не публикуются
	KafkaTopicPrefix string
	MigrationsPath   string

	OTelEnabled     bool
	OTelEndpoint    string
	OTelSampleRatio float64

	AlertRefreshInterval time.Duration
	AlertWindowDays      int

	PolicyDefaultsFile string
	PolicyDefaults     policy.Defaults
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv()
}

// FromEnv читает конфигурацию из переменных окружения
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBDSN:              os.Getenv("DB_DSN"),
		Environment:        getenv("ENV", "development"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		TelegramToken:      os.Getenv("TELEGRAM_TOKEN"),
		HTTPAddr:           getenv("HTTP_ADDR", ":8080"),
		RedisAddr:          strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		KafkaBrokers:       events.SplitBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopicPrefix:   os.Getenv("KAFKA_TOPIC_PREFIX"),
		MigrationsPath:     getenv("MIGRATIONS_PATH", "migrations"),
		OTelEndpoint:       getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		PolicyDefaultsFile: strings.TrimSpace(os.Getenv("POLICY_DEFAULTS_FILE")),
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	var err error
	if cfg.OTelEnabled, err = parseBool("OTEL_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.OTelSampleRatio, err = parseFloat("OTEL_SAMPLING_RATIO", 1); err != nil {
		return nil, err
	}
	if cfg.OTelSampleRatio < 0 || cfg.OTelSampleRatio > 1 {
		return nil, fmt.Errorf("OTEL_SAMPLING_RATIO must be within [0, 1], got %v", cfg.OTelSampleRatio)
	}
	if cfg.AlertRefreshInterval, err = parseDuration("ALERT_REFRESH_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AlertRefreshInterval <= 0 {
		return nil, fmt.Errorf("ALERT_REFRESH_INTERVAL must be positive")
	}
	if cfg.AlertWindowDays, err = parseInt("ALERT_WINDOW_DAYS", 180); err != nil {
		return nil, err
	}
	if cfg.AlertWindowDays <= 0 {
		return nil, fmt.Errorf("ALERT_WINDOW_DAYS must be positive")
	}

	cfg.PolicyDefaults = policy.BuiltinDefaults()
	if cfg.PolicyDefaultsFile != "" {
		if cfg.PolicyDefaults, err = LoadPolicyDefaults(cfg.PolicyDefaultsFile); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func parseInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
