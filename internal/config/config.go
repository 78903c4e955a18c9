// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/deusflow/newsboard/internal/ratelimit"
)

var (
	DefaultRSSProxyHosts = []string{
		"g1.globo.com",
		"santaportal.com.br",
		"diariodolitoral.com.br",
		"news.google.com",
	}
	DefaultImageProxyHosts = []string{
		"g1.globo.com",
		"globo.com",
		"glbimg.com",
		"santaportal.com.br",
		"diariodolitoral.com.br",
		"news.google.com",
		"googleusercontent.com",
		"ggpht.com",
		"placehold.co",
	}
)

type Config struct {
	// HTTP settings
	Port int

	// News settings
	SourcesFile       string
	RefreshInterval   time.Duration
	FetchTimeout      time.Duration
	MaxItemsPerSource int
	DateLocale        string // "en" or "pt-BR"
	ImageProxyPrefix  string // empty disables thumbnail rewriting

	// Proxy settings
	RSSProxyHosts   []string
	ImageProxyHosts []string
	RateLimitRPS    float64 // 0 disables
	RateLimitBurst  int
	TrustedProxies  []string // peers allowed to set X-Forwarded-For

	// Message store
	DBDriver    string // memory | sqlite | postgres
	DatabaseURL string

	// Weather
	WeatherLatitude  float64
	WeatherLongitude float64
	WeatherLocation  string
	WeatherDays      int
	WeatherCacheTTL  time.Duration

	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:              3001,
		RefreshInterval:   time.Hour,
		FetchTimeout:      15 * time.Second,
		MaxItemsPerSource: 15,
		DateLocale:        "en",
		RSSProxyHosts:     DefaultRSSProxyHosts,
		ImageProxyHosts:   DefaultImageProxyHosts,
		RateLimitRPS:      20,
		RateLimitBurst:    40,
		DBDriver:          "sqlite",
		DatabaseURL:       "data/messages.db",
		WeatherLatitude:   -24.0058,
		WeatherLongitude:  -46.4028,
		WeatherLocation:   "Praia Grande, SP",
		WeatherDays:       2,
		WeatherCacheTTL:   2 * time.Hour,
	}

	cfg.Port = getEnvIntOrDefault("PORT", cfg.Port)
	cfg.SourcesFile = os.Getenv("SOURCES_FILE")
	cfg.RefreshInterval = getEnvDurationOrDefault("REFRESH_INTERVAL", cfg.RefreshInterval)
	cfg.FetchTimeout = getEnvDurationOrDefault("FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.MaxItemsPerSource = getEnvIntOrDefault("MAX_ITEMS_PER_SOURCE", cfg.MaxItemsPerSource)
	cfg.DateLocale = getEnvOrDefault("DATE_LOCALE", cfg.DateLocale)
	cfg.ImageProxyPrefix = os.Getenv("IMAGE_PROXY_PREFIX")

	cfg.RSSProxyHosts = getEnvListOrDefault("RSS_PROXY_HOSTS", cfg.RSSProxyHosts)
	cfg.ImageProxyHosts = getEnvListOrDefault("IMAGE_PROXY_HOSTS", cfg.ImageProxyHosts)
	cfg.RateLimitRPS = getEnvFloatOrDefault("PROXY_RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = getEnvIntOrDefault("PROXY_RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.TrustedProxies = getEnvListOrDefault("TRUSTED_PROXIES", nil)

	cfg.DBDriver = strings.ToLower(getEnvOrDefault("DB_DRIVER", cfg.DBDriver))
	cfg.DatabaseURL = getEnvOrDefault("DATABASE_URL", cfg.DatabaseURL)

	cfg.WeatherLatitude = getEnvFloatOrDefault("WEATHER_LATITUDE", cfg.WeatherLatitude)
	cfg.WeatherLongitude = getEnvFloatOrDefault("WEATHER_LONGITUDE", cfg.WeatherLongitude)
	cfg.WeatherLocation = getEnvOrDefault("WEATHER_LOCATION", cfg.WeatherLocation)
	cfg.WeatherDays = getEnvIntOrDefault("WEATHER_FORECAST_DAYS", cfg.WeatherDays)
	cfg.WeatherCacheTTL = getEnvDurationOrDefault("WEATHER_CACHE_TTL", cfg.WeatherCacheTTL)

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("90s") or plain seconds.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma separated list, dropping blanks.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive")
	}
	if c.MaxItemsPerSource <= 0 {
		return fmt.Errorf("MAX_ITEMS_PER_SOURCE must be positive")
	}
	switch strings.ToLower(c.DateLocale) {
	case "en", "pt-br", "pt":
	default:
		return fmt.Errorf("DATE_LOCALE must be 'en' or 'pt-BR'")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("PROXY_RATE_LIMIT_RPS cannot be negative")
	}
	if _, err := ratelimit.ParseTrustedProxies(c.TrustedProxies); err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	switch c.DBDriver {
	case "memory":
	case "sqlite", "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for DB_DRIVER=%s", c.DBDriver)
		}
	default:
		return fmt.Errorf("DB_DRIVER must be 'memory', 'sqlite' or 'postgres'")
	}
	if c.WeatherCacheTTL <= 0 {
		return fmt.Errorf("WEATHER_CACHE_TTL must be positive")
	}
	return nil
}
