package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the AquaHealth backend
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	MQTT      MQTTConfig
	Predictor PredictorConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Environment  string
}

// IsProduction reports whether raw error details must be hidden from API clients
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

// DatabaseConfig holds PostgreSQL database configuration
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds configuration for the document cache
type RedisConfig struct {
	Enabled   bool
	Addr      string
	Password  string
	DB        int
	TTL       time.Duration
	KeyPrefix string
}

// MQTTConfig holds MQTT broker configuration
type MQTTConfig struct {
	BrokerURL       string
	ClientID        string
	Username        string
	Password        string
	KeepAlive       time.Duration
	PingTimeout     time.Duration
	ConnectRetry    bool
	TopicSensorData string
}

// PredictorConfig holds configuration for the external disease-prediction service.
// A zero Timeout means predictor calls are not bounded.
type PredictorConfig struct {
	BaseURL       string
	Timeout       time.Duration
	HealthTimeout time.Duration
	RetryCount    int
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			Environment:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "aquahealth"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:   getBoolEnv("REDIS_ENABLED", false),
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getIntEnv("REDIS_DB", 0),
			TTL:       getDurationEnv("REDIS_TTL", 5*time.Minute),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "aquahealth"),
		},
		MQTT: MQTTConfig{
			BrokerURL:       getMQTTBrokerURL(),
			ClientID:        getEnv("MQTT_CLIENT_ID", "aquahealth_backend"),
			Username:        getEnv("MQTT_USERNAME", ""),
			Password:        getEnv("MQTT_PASSWORD", ""),
			KeepAlive:       getDurationEnv("MQTT_KEEP_ALIVE", 30*time.Second),
			PingTimeout:     getDurationEnv("MQTT_PING_TIMEOUT", 10*time.Second),
			ConnectRetry:    getBoolEnv("MQTT_CONNECT_RETRY", true),
			TopicSensorData: getEnv("MQTT_TOPIC_SENSOR_DATA", "aquahealth/sensors/data"),
		},
		Predictor: PredictorConfig{
			BaseURL:       getEnv("PREDICTOR_BASE_URL", "http://127.0.0.1:8000"),
			Timeout:       getDurationEnv("PREDICTOR_TIMEOUT", 0),
			HealthTimeout: getDurationEnv("PREDICTOR_HEALTH_TIMEOUT", 5*time.Second),
			RetryCount:    getIntEnv("PREDICTOR_RETRY_COUNT", 0),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// getEnv returns environment variable value or default if not set
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv returns duration environment variable value or default if not set
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getBoolEnv returns boolean environment variable value or default if not set
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getIntEnv returns integer environment variable value or default if not set
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getMQTTBrokerURL returns the broker URL with a tcp:// prefix if no scheme is present.
// An empty value disables MQTT ingestion.
func getMQTTBrokerURL() string {
	broker := getEnv("MQTT_BROKER", getEnv("MQTT_BROKER_URL", ""))
	if broker == "" {
		return ""
	}
	if !strings.HasPrefix(broker, "tcp:") && !strings.HasPrefix(broker, "ssl") &&
		!strings.HasPrefix(broker, "ws") && !strings.HasPrefix(broker, "mqtt") {
		return "tcp://" + broker
	}
	return broker
}
