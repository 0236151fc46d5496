package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.BusinessHoursStart)
	assert.Equal(t, 18, cfg.BusinessHoursEnd)
	assert.Equal(t, 5, cfg.BruteForceThreshold)
	assert.Equal(t, 10, cfg.BruteForceWindowMinutes)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.GeoHTTPFallback)
}

func TestLoad_BareEnvVarOverridesDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example/test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://example/test", cfg.DatabaseURL)
}

func TestLoad_PrefixedEnvVarTakesPrecedence(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://bare/db")
	t.Setenv("SENTINELWATCH_DATABASE_URL", "postgres://prefixed/db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://prefixed/db", cfg.DatabaseURL)
}

func TestConfig_Blacklist_ParsesTrimsAndDropsEmpty(t *testing.T) {
	cfg := &Config{IPBlacklist: " 10.0.0.1 ,, 192.168.1.1"}
	set := cfg.Blacklist()

	assert.True(t, set["10.0.0.1"])
	assert.True(t, set["192.168.1.1"])
	assert.Len(t, set, 2)
}

func TestConfig_RuleSettings_Projection(t *testing.T) {
	cfg := &Config{
		BusinessHoursStart:      9,
		BusinessHoursEnd:        17,
		BruteForceThreshold:     3,
		BruteForceWindowMinutes: 15,
		IPBlacklist:             "203.0.113.1",
	}

	settings := cfg.RuleSettings()
	assert.Equal(t, 9, settings.BusinessHoursStart)
	assert.Equal(t, 17, settings.BusinessHoursEnd)
	assert.Equal(t, 3, settings.BruteForceThreshold)
	assert.Equal(t, 15, settings.BruteForceWindowMinutes)
	assert.True(t, settings.Blacklist["203.0.113.1"])
}
