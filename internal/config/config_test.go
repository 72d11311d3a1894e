package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "reviews-service", cfg.ServiceName)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Store.URI)
	assert.Equal(t, "reviews", cfg.Store.Database)
	assert.Equal(t, "reviews", cfg.Store.Collection)
	assert.Empty(t, cfg.Store.Region)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoad_RegionURIs(t *testing.T) {
	t.Setenv("MONGODB_REGION_URIS", "emea=mongodb://emea-host:27017,amer=mongodb://amer-host:27017")
	t.Setenv("DB_REGION", "amer")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "amer", cfg.Store.Region)
	assert.Equal(t, map[string]string{
		"emea": "mongodb://emea-host:27017",
		"amer": "mongodb://amer-host:27017",
	}, cfg.Store.RegionURIs)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("REVIEWS_HTTP_PORT", "99999")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
