package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP configuration
	ListenAddr string

	// Envelope configuration
	EnvelopeTTLSeconds int64   // Lifetime of a new envelope; 0 disables expiry
	MinAmount          float64 // Smallest total a currency envelope may hold
	MaxAmount          float64 // Largest total a currency envelope may hold
	MaxNoteLength      int

	// Ledger configuration
	StartingBalance float64 // Balance granted to auto-created ledger accounts

	// Reconciliation configuration
	ReconcileIntervalSeconds int64
	ReconcileGraceSeconds    int64 // Pending credits younger than this are skipped

	// Broadcast configuration
	KafkaBrokers []string // Empty disables the Kafka announcer
	KafkaTopic   string

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// HTTP
		ListenAddr: ":8080",

		// Envelope settings with defaults
		EnvelopeTTLSeconds: 86400, // 24 hours
		MinAmount:          0.01,
		MaxAmount:          1000000,
		MaxNoteLength:      50,

		// Ledger
		StartingBalance: 0,

		// Reconciliation
		ReconcileIntervalSeconds: 300,
		ReconcileGraceSeconds:    60,

		// Broadcast
		KafkaTopic: "redpockets.announcements",

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		config.ListenAddr = addr
	}
	if ttl := os.Getenv("ENVELOPE_TTL_SECONDS"); ttl != "" {
		if parsedTTL, err := strconv.ParseInt(ttl, 10, 64); err == nil {
			config.EnvelopeTTLSeconds = parsedTTL
		}
	}
	if min := os.Getenv("ENVELOPE_MIN_AMOUNT"); min != "" {
		if parsedMin, err := strconv.ParseFloat(min, 64); err == nil {
			config.MinAmount = parsedMin
		}
	}
	if max := os.Getenv("ENVELOPE_MAX_AMOUNT"); max != "" {
		if parsedMax, err := strconv.ParseFloat(max, 64); err == nil {
			config.MaxAmount = parsedMax
		}
	}
	if note := os.Getenv("ENVELOPE_MAX_NOTE_LENGTH"); note != "" {
		if parsedNote, err := strconv.Atoi(note); err == nil {
			config.MaxNoteLength = parsedNote
		}
	}
	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsedBalance, err := strconv.ParseFloat(balance, 64); err == nil {
			config.StartingBalance = parsedBalance
		}
	}
	if interval := os.Getenv("RECONCILE_INTERVAL_SECONDS"); interval != "" {
		if parsedInterval, err := strconv.ParseInt(interval, 10, 64); err == nil {
			config.ReconcileIntervalSeconds = parsedInterval
		}
	}
	if grace := os.Getenv("RECONCILE_GRACE_SECONDS"); grace != "" {
		if parsedGrace, err := strconv.ParseInt(grace, 10, 64); err == nil {
			config.ReconcileGraceSeconds = parsedGrace
		}
	}

	// Parse Kafka broker list
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			broker = strings.TrimSpace(broker)
			if broker != "" {
				config.KafkaBrokers = append(config.KafkaBrokers, broker)
			}
		}
	}
	if topic := os.Getenv("KAFKA_TOPIC"); topic != "" {
		config.KafkaTopic = topic
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
