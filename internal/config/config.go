package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"homerent/internal/cache"
	"homerent/internal/database"
	"homerent/internal/external"
	"homerent/internal/messaging"
	"homerent/internal/tracing"
)

// Config содержит конфигурацию приложения
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration
	AllowedOrigins []string

	Database      database.Config
	NATS          messaging.Config
	Redis         cache.Config
	Elasticsearch ElasticsearchConfig
	Checkout      external.CheckoutConfig
	Tracing       tracing.Config

	JWTSecret      string
	RBACModelPath  string
	RBACPolicyPath string

	Sweeps SweepConfig
}

// SweepConfig - расписание фоновых задач истечения
type SweepConfig struct {
	BookingSweepAt       string // HH:MM local time
	PaymentSweepInterval time.Duration
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "homerent"),
			Password:           getEnv("DB_PASSWORD", "homerent"),
			DBName:             getEnv("DB_NAME", "homerent"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "homerent"),
			ClientID:  getEnv("NATS_CLIENT_ID", "homerent-api"),
		},

		Redis: cache.Config{
			Addr:      getEnv("VALKEY_ADDR", "localhost:6379"),
			Password:  getEnv("VALKEY_PASSWORD", ""),
			KeyPrefix: getEnv("VALKEY_KEY_PREFIX", "users:auth"),
			TTL:       time.Duration(getEnvInt("VALKEY_TTL_MIN", 15)) * time.Minute,
		},

		Elasticsearch: LoadElasticsearchConfig(),

		Checkout: external.CheckoutConfig{
			SecretKey:  getEnv("STRIPE_SECRET_KEY", ""),
			Currency:   getEnv("STRIPE_CURRENCY", "usd"),
			SuccessURL: getEnv("STRIPE_SUCCESS_URL", "http://localhost:8081/api/payments/success?session_id={CHECKOUT_SESSION_ID}"),
			CancelURL:  getEnv("STRIPE_CANCEL_URL", "http://localhost:8081/api/payments/cancel?session_id={CHECKOUT_SESSION_ID}"),
			Timeout:    time.Duration(getEnvInt("STRIPE_TIMEOUT_SEC", 30)) * time.Second,
		},

		Tracing: tracing.Config{
			ServiceName:    getEnv("SERVICE_NAME", "homerent-api"),
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		},

		JWTSecret:      getEnv("JWT_SECRET", ""),
		RBACModelPath:  getEnv("RBAC_MODEL_PATH", "config/rbac_model.conf"),
		RBACPolicyPath: getEnv("RBAC_POLICY_PATH", "config/policy.csv"),

		Sweeps: SweepConfig{
			BookingSweepAt:       getEnv("BOOKING_SWEEP_AT", "23:50"),
			PaymentSweepInterval: time.Duration(getEnvInt("PAYMENT_SWEEP_INTERVAL_SEC", 60)) * time.Second,
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

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
