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
	RawDataDir string
	ChunkSize  int

	// ArcGIS portal configuration.
	ArcGISURL         string
	ArcGISUsername    string
	ArcGISPassword    string
	ArcGISServiceName string
	ArcGISLayerName   string
	ArcGISTimeout     time.Duration

	// AW source configuration, used by the download command.
	AWBaseURL  string
	AWTimeout  time.Duration
	AWCacheDir string

	// Optional record publishing.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is merged in first when
// present.
func Load() (*Config, error) {
	// Best effort; absence of a .env file is the normal production case.
	_ = godotenv.Load()

	chunkSize, err := parsePositiveInt("CHUNK_SIZE", 200)
	if err != nil {
		return nil, err
	}

	arcgisTimeout, err := parseDuration("ARCGIS_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}
	awTimeout, err := parseDuration("AW_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))

	cfg := &Config{
		RawDataDir: os.Getenv("RAW_DATA_DIR"),
		ChunkSize:  chunkSize,

		ArcGISURL:         os.Getenv("ARCGIS_URL"),
		ArcGISUsername:    os.Getenv("ARCGIS_USERNAME"),
		ArcGISPassword:    os.Getenv("ARCGIS_PASSWORD"),
		ArcGISServiceName: envOrDefault("ARCGIS_SERVICE_NAME", "whitewater_reaches"),
		ArcGISLayerName:   os.Getenv("ARCGIS_LAYER_NAME"),
		ArcGISTimeout:     arcgisTimeout,

		AWBaseURL:  os.Getenv("AW_BASE_URL"),
		AWTimeout:  awTimeout,
		AWCacheDir: envOrDefault("AW_CACHE_DIR", "data"),

		KafkaBrokers: brokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "reach-records"),
		KafkaEnabled: len(brokers) > 0,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.RawDataDir == "" {
		return nil, errors.New("RAW_DATA_DIR is required")
	}
	if cfg.ArcGISURL == "" {
		return nil, errors.New("ARCGIS_URL is required")
	}
	if cfg.ArcGISUsername == "" || cfg.ArcGISPassword == "" {
		return nil, errors.New("ARCGIS_USERNAME and ARCGIS_PASSWORD are required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
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
