package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("RAW_DATA_DIR", "/var/data/aw")
	t.Setenv("ARCGIS_URL", "https://example.maps.arcgis.com")
	t.Setenv("ARCGIS_USERNAME", "publisher")
	t.Setenv("ARCGIS_PASSWORD", "hunter2")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/data/aw", cfg.RawDataDir)
	assert.Equal(t, 200, cfg.ChunkSize)
	assert.Equal(t, "whitewater_reaches", cfg.ArcGISServiceName)
	assert.Equal(t, 60*time.Second, cfg.ArcGISTimeout)
	assert.Equal(t, "data", cfg.AWCacheDir)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CHUNK_SIZE", "50")
	t.Setenv("ARCGIS_SERVICE_NAME", "rivers_v2")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("KAFKA_TOPIC", "reach-records-v2")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.ChunkSize)
	assert.Equal(t, "rivers_v2", cfg.ArcGISServiceName)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "reach-records-v2", cfg.KafkaTopic)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"raw data dir", "RAW_DATA_DIR"},
		{"portal url", "ARCGIS_URL"},
		{"username", "ARCGIS_USERNAME"},
		{"password", "ARCGIS_PASSWORD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"chunk size zero", "CHUNK_SIZE", "0"},
		{"chunk size negative", "CHUNK_SIZE", "-5"},
		{"chunk size not a number", "CHUNK_SIZE", "many"},
		{"bad arcgis timeout", "ARCGIS_TIMEOUT", "soon"},
		{"bad shutdown timeout", "SHUTDOWN_TIMEOUT", "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
