package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FINATLAS_DATABASE_URL", "postgres://localhost/finatlas")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 1536, cfg.VectorDimensions)
	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, 10, cfg.DefaultSearchLimit)
	assert.Equal(t, 100, cfg.MaxSearchLimit)
	assert.Equal(t, 0.7, cfg.MinSimilarityScore)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, "America/Caracas", cfg.SchedulerTimezone)
	assert.Equal(t, 900, cfg.UpdateExchangesInterval)
	assert.Equal(t, 1800, cfg.UpdateRatesInterval)
	assert.Equal(t, 86400, cfg.UpdateBanksInterval)
	assert.Equal(t, 604800, cfg.DiscoveryInterval)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("FINATLAS_DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FINATLAS_DATABASE_URL")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FINATLAS_DATABASE_URL", "postgres://localhost/finatlas")
	t.Setenv("FINATLAS_PORT", "9090")
	t.Setenv("FINATLAS_MIN_SIMILARITY_SCORE", "0.5")
	t.Setenv("FINATLAS_SCHEDULER_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 0.5, cfg.MinSimilarityScore)
	assert.False(t, cfg.SchedulerEnabled)
}

func TestCountriesAndTypes(t *testing.T) {
	t.Setenv("FINATLAS_DATABASE_URL", "postgres://localhost/finatlas")

	cfg, err := Load()
	require.NoError(t, err)

	countries := cfg.Countries()
	assert.Len(t, countries, 22)
	assert.Contains(t, countries, "VE")
	assert.Contains(t, countries, "US")
	assert.Contains(t, countries, "HT")

	types := cfg.Types()
	assert.Equal(t, []string{"bank", "exchange", "fintech", "casa_cambio", "wallet", "defi"}, types)
}

func TestCountriesAndTypesNormalization(t *testing.T) {
	t.Setenv("FINATLAS_DATABASE_URL", "postgres://localhost/finatlas")
	t.Setenv("FINATLAS_COUNTRIES_ENABLED", " ve, us ,,br ")
	t.Setenv("FINATLAS_ENTITY_TYPES", "Bank, FINTECH")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"VE", "US", "BR"}, cfg.Countries())
	assert.Equal(t, []string{"bank", "fintech"}, cfg.Types())
}

func TestHasS3(t *testing.T) {
	t.Setenv("FINATLAS_DATABASE_URL", "postgres://localhost/finatlas")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.HasS3())

	cfg.S3Endpoint = "http://localhost:9000"
	cfg.S3AccessKey = "key"
	cfg.S3SecretKey = "secret"
	assert.True(t, cfg.HasS3())
}
