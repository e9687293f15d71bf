package config

import (
	"os"
	"time"
)

// Server captures the demo server configuration.
type Server struct {
	Addr string

	// Store identity carried into every facade operation.
	Service     string
	Label       string
	AccessGroup string

	// BiometricPreference opts the facade into biometric protection when the
	// subsystem reports it configured.
	BiometricPreference bool

	// BiometricState scripts the demo evaluator: "enrolled", "unenrolled",
	// "no-passcode" or "no-hardware". The demo host has no real sensor.
	BiometricState string

	// Backend selects the credential store: "memory", "redis" or "postgres".
	Backend     string
	RedisURL    string
	PostgresURL string

	// MasterSecret seals values at rest in the external backends.
	MasterSecret string

	JWTSigningKey string
}

// Redis holds connection tuning for the Redis backend.
type Redis struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:                envOr("BIOVAULT_ADDR", ":8080"),
		Service:             envOr("BIOVAULT_SERVICE", "biovault-demo"),
		Label:               envOr("BIOVAULT_LABEL", "biovault"),
		AccessGroup:         os.Getenv("BIOVAULT_ACCESS_GROUP"),
		BiometricPreference: os.Getenv("BIOVAULT_BIOMETRIC_PREFERENCE") != "false",
		BiometricState:      envOr("BIOVAULT_BIOMETRIC_STATE", "enrolled"),
		Backend:             envOr("BIOVAULT_BACKEND", "memory"),
		RedisURL:            os.Getenv("BIOVAULT_REDIS_URL"),
		PostgresURL:         os.Getenv("BIOVAULT_POSTGRES_URL"),
		MasterSecret:        os.Getenv("BIOVAULT_MASTER_SECRET"),
		// Default only suits development; override in any real deployment.
		JWTSigningKey: envOr("BIOVAULT_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
	}
}

// RedisFromEnv builds Redis tuning with defaults that favor failing fast.
func RedisFromEnv() Redis {
	return Redis{
		URL:          os.Getenv("BIOVAULT_REDIS_URL"),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
