// Package config loads SentinelWatch's runtime configuration with
// spf13/viper, grounded on the teacher pack's config/config.go
// (benedict-erwin-insight-collector) generalized from a JSON config
// file to environment-variable-first settings matching
// original_source/backend/config/config.py's defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/arjunmehta/sentinelwatch/pkg/rules"
)

// Config holds every tunable SentinelWatch needs at startup.
type Config struct {
	DatabaseURL string `mapstructure:"database_url"`

	BusinessHoursStart int `mapstructure:"business_hours_start"`
	BusinessHoursEnd   int `mapstructure:"business_hours_end"`

	BruteForceThreshold     int `mapstructure:"brute_force_threshold"`
	BruteForceWindowMinutes int `mapstructure:"brute_force_window_minutes"`

	IPBlacklist   string `mapstructure:"ip_blacklist"`
	MaxMindDBPath string `mapstructure:"maxmind_db_path"`

	AlertRetentionDays int `mapstructure:"alert_retention_days"`

	HTTPAddr        string `mapstructure:"http_addr"`
	LogLevel        string `mapstructure:"log_level"`
	LogFormat       string `mapstructure:"log_format"`
	GeoHTTPFallback bool   `mapstructure:"geo_http_fallback"`
}

// Load reads configuration from (in increasing priority) built-in
// defaults, an optional config file named "sentinelwatch" on the
// current path, and SENTINELWATCH_*-prefixed environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("database_url", "")
	v.SetDefault("business_hours_start", 8)
	v.SetDefault("business_hours_end", 18)
	v.SetDefault("brute_force_threshold", 5)
	v.SetDefault("brute_force_window_minutes", 10)
	v.SetDefault("ip_blacklist", "10.0.0.100,192.168.1.200,172.16.0.50")
	v.SetDefault("maxmind_db_path", "")
	v.SetDefault("alert_retention_days", 90)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("geo_http_fallback", true)

	v.SetConfigName("sentinelwatch")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/sentinelwatch")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	v.SetEnvPrefix("sentinelwatch")
	v.AutomaticEnv()
	// DATABASE_URL, IP_BLACKLIST and MAXMIND_DB_PATH are also honored
	// unprefixed, matching original_source's os.getenv() fallbacks.
	_ = v.BindEnv("database_url", "SENTINELWATCH_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("ip_blacklist", "SENTINELWATCH_IP_BLACKLIST", "IP_BLACKLIST")
	_ = v.BindEnv("maxmind_db_path", "SENTINELWATCH_MAXMIND_DB_PATH", "MAXMIND_DB_PATH")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return cfg, nil
}

// Blacklist parses the comma-separated IPBlacklist into a lookup set,
// trimming whitespace and dropping empty entries.
func (c *Config) Blacklist() map[string]bool {
	set := make(map[string]bool)
	for _, ip := range strings.Split(c.IPBlacklist, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			set[ip] = true
		}
	}
	return set
}

// RuleSettings projects the parts of Config the detection rules need
// into a rules.Settings value, keeping pkg/rules free of any
// dependency on internal/config.
func (c *Config) RuleSettings() rules.Settings {
	return rules.Settings{
		BusinessHoursStart:      c.BusinessHoursStart,
		BusinessHoursEnd:        c.BusinessHoursEnd,
		BruteForceThreshold:     c.BruteForceThreshold,
		BruteForceWindowMinutes: c.BruteForceWindowMinutes,
		Blacklist:               c.Blacklist(),
	}
}
