package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	RateLimitRPS    int

	// Live hazard feed (Kafka) configuration.
	FeedEnabled bool
	FeedBrokers []string
	FeedTopic   string
	FeedGroupID string

	// Boundary-polygon source configuration.
	CountriesURL    string
	USStatesURL     string
	BoundaryTimeout time.Duration

	// Historical hurricane catalog configuration.
	HurdatAtlanticURL string
	HurdatPacificURL  string
	HurdatTimeout     time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	boundaryTimeout, err := parseDurationEnv("BOUNDARY_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	hurdatTimeout, err := parseDurationEnv("HURDAT_TIMEOUT", "120s")
	if err != nil {
		return nil, err
	}

	feedEnabled := false
	if v := os.Getenv("FEED_ENABLED"); v != "" {
		feedEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		RateLimitRPS:    parseRateLimit(),

		FeedEnabled: feedEnabled,
		FeedBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("FEED_BROKERS", "localhost:9092")),
		FeedTopic:   sharedcfg.EnvOrDefault("FEED_TOPIC", "hazard-events"),
		FeedGroupID: sharedcfg.EnvOrDefault("FEED_GROUP_ID", "exposure-analytics"),

		CountriesURL: sharedcfg.EnvOrDefault("BOUNDARY_COUNTRIES_URL",
			"https://datahub.io/core/geo-countries/r/countries.geojson"),
		USStatesURL: sharedcfg.EnvOrDefault("BOUNDARY_US_STATES_URL",
			"https://raw.githubusercontent.com/PublicaMundi/MappingAPI/master/data/geojson/us-states.json"),
		BoundaryTimeout: boundaryTimeout,

		HurdatAtlanticURL: sharedcfg.EnvOrDefault("HURDAT_ATLANTIC_URL",
			"https://www.nhc.noaa.gov/data/hurdat/hurdat2-1851-2024-040824.txt"),
		HurdatPacificURL: sharedcfg.EnvOrDefault("HURDAT_PACIFIC_URL",
			"https://www.nhc.noaa.gov/data/hurdat/hurdat2-nepac-1949-2024-042324.txt"),
		HurdatTimeout: hurdatTimeout,
	}

	if cfg.FeedEnabled && len(cfg.FeedBrokers) == 0 {
		return nil, errors.New("FEED_ENABLED is true but FEED_BROKERS is empty")
	}
	if cfg.FeedEnabled && cfg.FeedTopic == "" {
		return nil, errors.New("FEED_ENABLED is true but FEED_TOPIC is empty")
	}

	return cfg, nil
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	raw := sharedcfg.EnvOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseRateLimit() int {
	if s := os.Getenv("RATE_LIMIT_RPS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 20
}
