package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"yatra/internal/auth"
	"yatra/internal/cache"
	"yatra/internal/database"
	"yatra/internal/external"
	"yatra/internal/messaging"
)

// Config содержит конфигурацию приложения
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration
	CORSOrigins    []string

	// Интервал фоновой проверки статусов поездок
	LifecycleInterval time.Duration

	Database      database.Config
	NATS          messaging.Config
	Cache         cache.Config
	Elasticsearch ElasticsearchConfig
	Payment       external.PaymentConfig
	Auth          AuthConfig
}

// ElasticsearchConfig содержит конфигурацию для подключения к Elasticsearch
type ElasticsearchConfig struct {
	Enabled    bool
	URL        string
	Index      string
	Username   string
	Password   string
	MaxRetries int
	Timeout    time.Duration
}

// AuthConfig содержит настройки OTP входа и выдачи токенов
type AuthConfig struct {
	Tokens            auth.TokenConfig
	OTPTTL            time.Duration
	OTPResendInterval time.Duration
	OTPMaxAttempts    int
	AdminPhones       []string
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8081"),
		GinMode:           getEnv("GIN_MODE", "debug"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		RequestTimeout:    time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,
		CORSOrigins:       getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		LifecycleInterval: getEnvDuration("LIFECYCLE_INTERVAL", time.Minute),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "yatra"),
			Password:           getEnv("DB_PASSWORD", "yatra123"),
			DBName:             getEnv("DB_NAME", "yatra"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			Enabled:   getEnvBool("NATS_ENABLED", false),
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "yatra"),
			ClientID:  getEnv("NATS_CLIENT_ID", "yatra-api"),
		},

		Cache: cache.Config{
			Addr:     getEnv("VALKEY_ADDR", "localhost:6379"),
			Password: getEnv("VALKEY_PASSWORD", ""),
			Prefix:   getEnv("VALKEY_PREFIX", "yatra"),
			TripsTTL: getEnvDuration("TRIPS_CACHE_TTL", 30*time.Second),
		},

		Elasticsearch: ElasticsearchConfig{
			Enabled:    getEnvBool("ELASTICSEARCH_ENABLED", false),
			URL:        getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Index:      getEnv("ELASTICSEARCH_INDEX", "trips"),
			Username:   os.Getenv("ELASTICSEARCH_USERNAME"),
			Password:   os.Getenv("ELASTICSEARCH_PASSWORD"),
			MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
			Timeout:    getEnvDuration("ELASTICSEARCH_TIMEOUT", 30*time.Second),
		},

		Payment: external.PaymentConfig{
			BaseURL:         getEnv("PAYMENT_GATEWAY_URL", "http://localhost:8090"),
			TeamSlug:        getEnv("PAYMENT_TEAM_SLUG", ""),
			Password:        getEnv("PAYMENT_PASSWORD", ""),
			Currency:        getEnv("PAYMENT_CURRENCY", "INR"),
			NotificationURL: getEnv("PAYMENT_NOTIFICATION_URL", ""),
			Timeout:         time.Duration(getEnvInt("PAYMENT_TIMEOUT_SEC", 30)) * time.Second,
		},

		Auth: AuthConfig{
			Tokens: auth.TokenConfig{
				Secret: getEnv("JWT_SECRET", "change-me-in-production"),
				Issuer: getEnv("JWT_ISSUER", "yatra"),
				TTL:    time.Duration(getEnvInt("JWT_TTL_MIN", 7*24*60)) * time.Minute,
			},
			OTPTTL:            time.Duration(getEnvInt("OTP_TTL_SEC", 300)) * time.Second,
			OTPResendInterval: time.Duration(getEnvInt("OTP_RESEND_SEC", 60)) * time.Second,
			OTPMaxAttempts:    getEnvInt("OTP_MAX_ATTEMPTS", 5),
			AdminPhones:       getEnvList("ADMIN_PHONES", nil),
		},
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList разбирает список значений, разделенных запятыми
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
