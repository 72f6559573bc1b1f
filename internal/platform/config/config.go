// Package config builds runtime configuration from environment variables so
// main stays lean. Optional collaborators (postgres, redis, witness, kafka)
// are selected by the presence of their settings.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr          string
	JWTSigningKey string
	TokenTTL      time.Duration

	// DatabaseURL empty selects the in-memory stores.
	DatabaseURL string

	// RedisURL empty disables the distance cache.
	RedisURL string

	// WitnessEndpoint empty selects the no-op witness.
	WitnessEndpoint string
	WitnessAPIKey   string
	WitnessTimeout  time.Duration

	ORSAPIKey      string
	OpenCageAPIKey string

	// KafkaBrokers empty disables the notification producer.
	KafkaBrokers           []string
	KafkaNotificationTopic string
}

// FromEnv reads configuration from the environment, applying development
// defaults where a value is safe to default.
func FromEnv() Config {
	addr := os.Getenv("LIFEBRIDGE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtKey == "" {
		// Development fallback - must be overridden in production.
		jwtKey = "dev-secret-key-change-in-production"
	}

	witnessTimeout := 5 * time.Second
	if raw := os.Getenv("WITNESS_TIMEOUT_MS"); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			witnessTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}
	topic := os.Getenv("KAFKA_NOTIFICATION_TOPIC")
	if topic == "" {
		topic = "lifebridge.notifications"
	}

	return Config{
		Addr:                   addr,
		JWTSigningKey:          jwtKey,
		TokenTTL:               time.Hour,
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisURL:               os.Getenv("REDIS_URL"),
		WitnessEndpoint:        os.Getenv("WITNESS_ENDPOINT"),
		WitnessAPIKey:          os.Getenv("WITNESS_API_KEY"),
		WitnessTimeout:         witnessTimeout,
		ORSAPIKey:              os.Getenv("ORS_API_KEY"),
		OpenCageAPIKey:         os.Getenv("OPENCAGE_API_KEY"),
		KafkaBrokers:           brokers,
		KafkaNotificationTopic: topic,
	}
}
