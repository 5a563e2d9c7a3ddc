// Package config loads POIS runtime settings from the environment into a
// single immutable value built once at process startup.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every runtime tunable recognized by the pipeline, HTTP
// surface, and auth collaborator. Load once at startup; never mutated.
type Config struct {
	// DB is the backing store locator (a sqlite DSN/file path).
	DB string
	// Port is the HTTP listen port.
	Port int
	// TLSCert / TLSKey enable TLS when both are present.
	TLSCert string
	TLSKey  string

	// AdminToken authenticates the bootstrap admin API caller.
	AdminToken string
	// JWTSecret signs and verifies session tokens.
	JWTSecret string

	// AcquisitionPointIdentity is echoed in every ESAM notification.
	AcquisitionPointIdentity string
	// DefaultSegmentationTypeID is applied to built segmentation descriptors
	// when a rule's build params omit one.
	DefaultSegmentationTypeID uint32

	// StoreRawPayloads gates whether EventRecords retain raw ESAM XML.
	StoreRawPayloads bool

	// RequestDeadline bounds end-to-end pipeline processing per request.
	RequestDeadline time.Duration
	// DBPoolSize bounds the number of open database connections.
	DBPoolSize int
}

// Load reads Config from the environment, applying the documented defaults.
func Load() *Config {
	return &Config{
		DB:                        getEnv("POIS_DB", "pois.db"),
		Port:                      getEnvInt("POIS_PORT", 8080),
		TLSCert:                   os.Getenv("POIS_TLS_CERT"),
		TLSKey:                    os.Getenv("POIS_TLS_KEY"),
		AdminToken:                getEnv("POIS_ADMIN_TOKEN", "dev-token"),
		JWTSecret:                 getEnv("POIS_JWT_SECRET", "change-me-in-production"),
		AcquisitionPointIdentity:  getEnv("POIS_ACQUISITION_POINT_IDENTITY", "pois-go"),
		DefaultSegmentationTypeID: getEnvHexUint32("POIS_DEFAULT_SEGMENTATION_TYPE", 0x10),
		StoreRawPayloads:          getEnvBool("POIS_STORE_RAW_PAYLOADS", false),
		RequestDeadline:           getEnvDuration("POIS_REQUEST_DEADLINE", 30*time.Second),
		DBPoolSize:                getEnvInt("POIS_DB_POOL_SIZE", 10),
	}
}

// TLSEnabled reports whether both halves of a TLS keypair are configured.
func (c *Config) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvHexUint32 parses a value that may be given as "0xNN" or a plain
// decimal string (base 0 auto-detects the prefix).
func getEnvHexUint32(key string, defaultVal uint32) uint32 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.ParseUint(v, 0, 32)
	if err != nil {
		return defaultVal
	}
	return uint32(n)
}
