// Copyright 2026 Simperby Authors

// Package nodeconfig holds all configuration for a Simperby node,
// populated from environment variables: os.Getenv/strconv, flat
// struct, no config-file or flag library.
package nodeconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for a Simperby node.
type Config struct {
	// Identity
	ChainName      string
	Ed25519KeyPath string
	DataDir        string

	// Server
	ListenAddr  string
	MetricsAddr string

	// Storage
	StorageDir string
	DBName     string

	// Peers (DMS gossip + repository push notification)
	Peers []string

	// Light client optional durable backing (lightclient/sqlstore.go)
	LightClientDatabaseURL string

	// DMS
	DMSKey            string
	DMSAggregateCommit bool

	// Consensus timing (fed into Vetomint's clock-driven caller, never
	// into Vetomint's own Progress, which stays clockless)
	ConsensusRoundTimeout time.Duration

	LogLevel string
}

// Load reads configuration from environment variables. Required
// fields are left empty on a missing variable; callers should call
// Validate before starting a node.
func Load() (*Config, error) {
	cfg := &Config{
		ChainName:      getEnv("SIMPERBY_CHAIN_NAME", ""),
		Ed25519KeyPath: getEnv("SIMPERBY_KEY_PATH", ""),
		DataDir:        getEnv("SIMPERBY_DATA_DIR", "./data"),

		ListenAddr:  getEnv("SIMPERBY_LISTEN_ADDR", "0.0.0.0:8080"),
		MetricsAddr: getEnv("SIMPERBY_METRICS_ADDR", "0.0.0.0:9090"),

		StorageDir: getEnv("SIMPERBY_STORAGE_DIR", "./data/storage"),
		DBName:     getEnv("SIMPERBY_DB_NAME", "simperby"),

		Peers: parsePeers(getEnv("SIMPERBY_PEERS", "")),

		LightClientDatabaseURL: getEnv("SIMPERBY_LIGHTCLIENT_DATABASE_URL", ""),

		DMSKey:             getEnv("SIMPERBY_DMS_KEY", ""),
		DMSAggregateCommit: getEnvBool("SIMPERBY_DMS_AGGREGATE_COMMIT", false),

		ConsensusRoundTimeout: getEnvDuration("SIMPERBY_CONSENSUS_ROUND_TIMEOUT", 10*time.Second),

		LogLevel: getEnv("SIMPERBY_LOG_LEVEL", "info"),
	}
	return cfg, nil
}

// Validate checks that the configuration has enough to start a node.
func (c *Config) Validate() error {
	var errors []string

	if c.ChainName == "" {
		errors = append(errors, "SIMPERBY_CHAIN_NAME is required but not set")
	}
	if c.Ed25519KeyPath == "" {
		errors = append(errors, "SIMPERBY_KEY_PATH is required but not set")
	}
	if c.DMSKey == "" {
		errors = append(errors, "SIMPERBY_DMS_KEY is required but not set")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parsePeers parses a comma-separated list of peer URLs, trimming
// spaces and dropping empty entries.
func parsePeers(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
