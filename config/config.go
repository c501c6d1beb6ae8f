package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultServicePort       = "8080"
	defaultJWTTTL            = 7 * 24 * time.Hour
	defaultIdempotencyKeyTTL = 24 * time.Hour
)

type Config struct {
	ServicePort       string
	MetricsPort       string
	Environment       string
	PostgreSQLConfig  PostgreSQLConfig
	JWTConfig         JWTConfig
	KafkaConfig       KafkaConfig
	TracingConfig     TracingConfig
	MailConfig        MailConfig
	IdempotencyKeyTTL time.Duration
}

type PostgreSQLConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUsername string
	DBPassword string
}

type JWTConfig struct {
	JWTSecret string
	TTL       time.Duration
}

type KafkaConfig struct {
	BrokerAddress   string
	BrokerTopic     string
	BrokerPartition int
}

// Enabled reports whether order events should be published.
func (k KafkaConfig) Enabled() bool {
	return k.BrokerAddress != "" && k.BrokerTopic != ""
}

type TracingConfig struct {
	CollectorHost string
}

type MailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	Sender       string
}

func (m MailConfig) Enabled() bool {
	return m.SMTPHost != "" && m.Sender != ""
}

func CreateNewConfig() *Config {
	godotenv.Load(".env")

	conf := Config{
		ServicePort: getEnv("SERVICE_PORT", defaultServicePort),
		MetricsPort: os.Getenv("METRICS_PORT"),
		Environment: os.Getenv("ENVIRONMENT"),
		PostgreSQLConfig: PostgreSQLConfig{
			DBHost:     os.Getenv("DB_HOST"),
			DBName:     os.Getenv("DB_NAME"),
			DBPort:     os.Getenv("DB_PORT"),
			DBUsername: os.Getenv("DB_USERNAME"),
			DBPassword: os.Getenv("DB_PASSWORD"),
		},
		JWTConfig: JWTConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TTL:       getDuration("JWT_TTL", defaultJWTTTL),
		},
		KafkaConfig: KafkaConfig{
			BrokerAddress:   os.Getenv("BROKER_ADDRESS"),
			BrokerTopic:     os.Getenv("BROKER_TOPIC"),
			BrokerPartition: getInt("BROKER_PARTITION", 0),
		},
		TracingConfig: TracingConfig{
			CollectorHost: os.Getenv("COLLECTOR_HOST"),
		},
		MailConfig: MailConfig{
			SMTPHost:     os.Getenv("SMTP_HOST"),
			SMTPPort:     getInt("SMTP_PORT", 587),
			SMTPUsername: os.Getenv("SMTP_USERNAME"),
			SMTPPassword: os.Getenv("SMTP_PASSWORD"),
			Sender:       os.Getenv("MAIL_SENDER"),
		},
		IdempotencyKeyTTL: getDuration("IDEMPOTENCY_KEY_TTL", defaultIdempotencyKeyTTL),
	}

	return &conf
}

// Validate fails when a required setting is missing. The signing secret has no
// fallback value.
func (c *Config) Validate() error {
	var missing []string
	if c.JWTConfig.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.PostgreSQLConfig.DBHost == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.PostgreSQLConfig.DBName == "" {
		missing = append(missing, "DB_NAME")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.JWTConfig.TTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
