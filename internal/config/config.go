package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Physical constants and material table, optionally overridden by the
	// YAML file at ConstantsFile.
	ConstantsFile string
	Constants     domain.PhysicalConstants

	// MeteorConfigFile keeps the meteor configuration record across
	// restarts. Empty means in-memory only.
	MeteorConfigFile string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Gemini narrative configuration.
	GeminiAPIKey       string
	GeminiEnabled      bool
	GeminiModel        string
	GeminiTimeout      time.Duration
	NarrativeCacheSize int

	// Kafka impact event publishing.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaImpactTopic   string
	BatchSize          int
	BatchFlushInterval time.Duration
	PublishQueueSize   int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	geminiTimeout, err := parsePositiveDuration("GEMINI_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	constantsFile := os.Getenv("IMPACT_CONSTANTS_FILE")
	constants := domain.DefaultConstants()
	if constantsFile != "" {
		constants, err = LoadConstants(constantsFile)
		if err != nil {
			return nil, err
		}
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	geminiKey := os.Getenv("GEMINI_API_KEY")

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ConstantsFile:    constantsFile,
		Constants:        constants,
		MeteorConfigFile: os.Getenv("METEOR_CONFIG_FILE"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   flagOrDefault("MAPBOX_ENABLED", mapboxToken != ""),
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parsePositiveInt("MAPBOX_CACHE_SIZE", 1000),

		GeminiAPIKey:       geminiKey,
		GeminiEnabled:      flagOrDefault("GEMINI_ENABLED", geminiKey != ""),
		GeminiModel:        sharedcfg.EnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTimeout:      geminiTimeout,
		NarrativeCacheSize: parsePositiveInt("NARRATIVE_CACHE_SIZE", 256),

		KafkaEnabled:       flagOrDefault("KAFKA_ENABLED", false),
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaImpactTopic:   sharedcfg.EnvOrDefault("KAFKA_IMPACT_TOPIC", "meteor-impacts"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		PublishQueueSize:   parsePositiveInt("PUBLISH_QUEUE_SIZE", 256),
	}

	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.GeminiEnabled && cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_ENABLED is true but GEMINI_API_KEY is not set")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaImpactTopic == "" {
			return nil, errors.New("KAFKA_IMPACT_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// flagOrDefault reads a "true"/"false" feature flag; any other non-empty
// value counts as false.
func flagOrDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true"
	}
	return def
}
