package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tanahair/water-harvest/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDomain string
	States     []string // empty means every known state

	Workers          int
	FetchTimeout     time.Duration
	FetchMaxAttempts int
	HarvestInterval  time.Duration // 0 runs a single round and exits

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Object store configuration.
	OBSEndpoint  string
	OBSAccessKey string
	OBSSecretKey string
	OBSUseSSL    bool
	OBSBucket    string
	OBSFolder    string

	// Migration trigger configuration.
	CDMEndpoint  string
	CDMProjectID string
	CDMClusterID string
	CDMJobName   string
	CDMToken     string
	CDMTimeout   time.Duration

	// Optional record stream.
	KafkaBrokers      []string
	KafkaRecordsTopic string
}

// TriggerEnabled reports whether a migration job should be started after
// uploads. The trigger needs project, cluster, and token together.
func (c *Config) TriggerEnabled() bool {
	return c.CDMProjectID != "" && c.CDMClusterID != "" && c.CDMToken != ""
}

// StreamEnabled reports whether harvested records are streamed to Kafka.
func (c *Config) StreamEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	workers, err := parseIntInRange("WORKERS", 4, 1, 16)
	if err != nil {
		return nil, err
	}
	maxAttempts, err := parseIntInRange("FETCH_MAX_ATTEMPTS", 3, 1, 10)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	interval, err := parseNonNegativeDuration("HARVEST_INTERVAL", "0s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cdmTimeout, err := parsePositiveDuration("CDM_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	domainName := envOrDefault("DATA_DOMAIN", "waterlevel")
	if _, ok := domain.DomainByName(domainName); !ok {
		return nil, fmt.Errorf("unknown DATA_DOMAIN %q, expected one of %s",
			domainName, strings.Join(domain.DomainNames(), ", "))
	}

	cfg := &Config{
		DataDomain: domainName,
		States:     splitList(os.Getenv("STATES")),

		Workers:          workers,
		FetchTimeout:     fetchTimeout,
		FetchMaxAttempts: maxAttempts,
		HarvestInterval:  interval,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		OBSEndpoint:  envOrDefault("OBS_ENDPOINT", "obs.my-kualalumpur-1.alphaedge.tmone.com.my"),
		OBSAccessKey: os.Getenv("OBS_ACCESS_KEY"),
		OBSSecretKey: os.Getenv("OBS_SECRET_KEY"),
		OBSUseSSL:    envOrDefault("OBS_USE_SSL", "true") == "true",
		OBSBucket:    envOrDefault("OBS_BUCKET", "nahrim-raw"),
		OBSFolder:    envOrDefault("OBS_FOLDER", domainName),

		CDMEndpoint:  envOrDefault("CDM_ENDPOINT", "https://cdm.my-kualalumpur-1.alphaedge.tmone.com.my"),
		CDMProjectID: os.Getenv("CDM_PROJECT_ID"),
		CDMClusterID: os.Getenv("CDM_CLUSTER_ID"),
		CDMJobName:   envOrDefault("CDM_JOB_NAME", domainName+"_functiongraph_trigger"),
		CDMToken:     os.Getenv("CDM_TOKEN"),
		CDMTimeout:   cdmTimeout,

		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaRecordsTopic: envOrDefault("KAFKA_RECORDS_TOPIC", "harvested-records"),
	}

	if cfg.OBSEndpoint == "" {
		return nil, errors.New("OBS_ENDPOINT is required")
	}
	if cfg.OBSAccessKey == "" || cfg.OBSSecretKey == "" {
		return nil, errors.New("OBS_ACCESS_KEY and OBS_SECRET_KEY are required")
	}
	if cfg.OBSBucket == "" {
		return nil, errors.New("OBS_BUCKET is required")
	}
	if anyTriggerVarSet() && !cfg.TriggerEnabled() {
		return nil, errors.New("CDM_PROJECT_ID, CDM_CLUSTER_ID, and CDM_TOKEN must be set together")
	}
	if cfg.StreamEnabled() && cfg.KafkaRecordsTopic == "" {
		return nil, errors.New("KAFKA_RECORDS_TOPIC is required when KAFKA_BROKERS is set")
	}

	registry := domain.NewRegistry()
	for _, s := range cfg.States {
		if _, ok := registry.Resolve(s); !ok {
			return nil, fmt.Errorf("unknown state %q in STATES", s)
		}
	}

	return cfg, nil
}

func anyTriggerVarSet() bool {
	return os.Getenv("CDM_PROJECT_ID") != "" ||
		os.Getenv("CDM_CLUSTER_ID") != "" ||
		os.Getenv("CDM_TOKEN") != ""
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// splitList parses a comma-separated list, trimming blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIntInRange(key string, def, min, max int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, min, max)
	}
	return n, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration", key)
	}
	return d, nil
}

func parseNonNegativeDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s must be a duration of zero or more", key)
	}
	return d, nil
}
