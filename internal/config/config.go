package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// NOAA Climate Data Online API.
	NOAAToken   string
	NOAABaseURL string

	// FCC census block lookup.
	FCCBaseURL    string
	FIPSCacheSize int

	// Open-Meteo archive API.
	OpenMeteoBaseURL string

	// Aggregation parameters.
	LookbackYears   int
	PageSize        int
	WetDayThreshold float64
	YearPacing      time.Duration
	UpstreamTimeout time.Duration

	// Optional Kafka frame sink.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from the environment (and an optional .env file),
// applying defaults where unset.
func Load() (*Config, error) {
	// A missing .env is fine; env vars are the source of truth.
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	pacing, err := parseDuration("YEAR_PACING", "200ms")
	if err != nil {
		return nil, err
	}
	upstreamTimeout, err := parseDuration("UPSTREAM_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	threshold, err := parseFloat("WET_DAY_THRESHOLD", 1)
	if err != nil {
		return nil, err
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		NOAAToken:   os.Getenv("NOAA_TOKEN"),
		NOAABaseURL: envOrDefault("NOAA_BASE_URL", "https://www.ncei.noaa.gov/cdo-web/api/v2/data"),

		FCCBaseURL:    envOrDefault("FCC_BASE_URL", "https://geo.fcc.gov/api/census/block/find"),
		FIPSCacheSize: envOrDefaultInt("FIPS_CACHE_SIZE", 1000),

		OpenMeteoBaseURL: envOrDefault("OPENMETEO_BASE_URL", "https://archive-api.open-meteo.com/v1/archive"),

		LookbackYears:   envOrDefaultInt("LOOKBACK_YEARS", 25),
		PageSize:        envOrDefaultInt("PAGE_SIZE", 1000),
		WetDayThreshold: threshold,
		YearPacing:      pacing,
		UpstreamTimeout: upstreamTimeout,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "rainfall-year-counts"),
	}

	if cfg.NOAAToken == "" {
		return nil, errors.New("NOAA_TOKEN is required")
	}
	if cfg.LookbackYears <= 0 {
		return nil, errors.New("LOOKBACK_YEARS must be positive")
	}
	if cfg.PageSize <= 0 || cfg.PageSize > 1000 {
		return nil, errors.New("PAGE_SIZE must be in (0, 1000]; 1000 is the upstream maximum")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
		}
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return f, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
