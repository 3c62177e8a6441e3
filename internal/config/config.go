package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents application configuration
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Session  SessionConfig  `mapstructure:"session"`
	National NationalConfig `mapstructure:"national"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// APIConfig points the console at the Holiday Persistence API
type APIConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Timeout  string `mapstructure:"timeout"`
	Retries  int    `mapstructure:"retries"` // attempts for GET requests
}

// AuthConfig represents bearer token configuration
type AuthConfig struct {
	Token           string `mapstructure:"token"`
	CLICommand      string `mapstructure:"cli_command"`
	RefreshInterval string `mapstructure:"refresh_interval"`
}

// SessionConfig represents the remembered branch/year selection
type SessionConfig struct {
	StateFile string `mapstructure:"state_file"`
	BranchID  string `mapstructure:"branch_id"`
	Year      int    `mapstructure:"year"`
}

// NationalConfig represents the national holiday import sources
type NationalConfig struct {
	APIURL       string `mapstructure:"api_url"`
	Country      string `mapstructure:"country"`
	FallbackFile string `mapstructure:"fallback_file"`
	CacheTTL     string `mapstructure:"cache_ttl"`
}

// ServerConfig represents the reference API server
type ServerConfig struct {
	Addr               string   `mapstructure:"addr"`
	DBPath             string   `mapstructure:"db_path"`
	AuthToken          string   `mapstructure:"auth_token"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	RateLimitPerMinute int      `mapstructure:"rate_limit_per_minute"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.endpoint", "http://localhost:8080/api")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.retries", 3)

	v.SetDefault("auth.token", "")
	v.SetDefault("auth.cli_command", "")
	v.SetDefault("auth.refresh_interval", "1h")

	v.SetDefault("session.state_file", defaultStateFile())
	v.SetDefault("session.branch_id", "")
	v.SetDefault("session.year", 0)

	v.SetDefault("national.api_url", "https://date.nager.at")
	v.SetDefault("national.country", "IN")
	v.SetDefault("national.fallback_file", "")
	v.SetDefault("national.cache_ttl", "24h")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.db_path", "holidays.db")
	v.SetDefault("server.auth_token", "")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit_per_minute", 120)

	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
}

func defaultStateFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".holiday-console-session.json"
	}
	return home + "/.holiday-console/session.json"
}

// Load loads configuration from file. Without an explicit path a missing
// config file is not an error; defaults and HOLIDAY_CONSOLE_* variables apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.holiday-console")
		v.AddConfigPath("/etc/holiday-console")
	}

	// HOLIDAY_CONSOLE_API_ENDPOINT overrides api.endpoint
	v.SetEnvPrefix("holiday_console")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ExpandEnvVars()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.Endpoint == "" {
		return fmt.Errorf("api.endpoint is required")
	}
	if u, err := url.Parse(c.API.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.endpoint must be an absolute URL, got '%s'", c.API.Endpoint)
	}
	if c.API.Retries < 0 {
		return fmt.Errorf("api.retries must not be negative")
	}

	for key, value := range map[string]string{
		"api.timeout":           c.API.Timeout,
		"auth.refresh_interval": c.Auth.RefreshInterval,
		"national.cache_ttl":    c.National.CacheTTL,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s must be a duration like 30s or 1h, got '%s'", key, value)
		}
	}

	if c.Session.Year != 0 && (c.Session.Year < 1900 || c.Session.Year > 2200) {
		return fmt.Errorf("session.year must be between 1900 and 2200, got %d", c.Session.Year)
	}

	if c.National.Country != "" && len(c.National.Country) != 2 {
		return fmt.Errorf("national.country must be a two-letter ISO code, got '%s'", c.National.Country)
	}

	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("server.rate_limit_per_minute must not be negative")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got '%s'", c.Log.Level)
	}

	return nil
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return duration
}

// GetTimeout returns the API request timeout
func (c *APIConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// GetRefreshInterval returns token refresh interval duration
func (c *AuthConfig) GetRefreshInterval() time.Duration {
	return parseDuration(c.RefreshInterval, time.Hour)
}

// GetCacheTTL returns cache TTL duration
func (c *NationalConfig) GetCacheTTL() time.Duration {
	return parseDuration(c.CacheTTL, 24*time.Hour)
}

// ExpandEnvVars expands ${VAR} references in secrets and paths
func (c *Config) ExpandEnvVars() {
	c.Auth.Token = os.ExpandEnv(c.Auth.Token)
	c.Server.AuthToken = os.ExpandEnv(c.Server.AuthToken)
	c.Session.StateFile = os.ExpandEnv(c.Session.StateFile)
	c.Server.DBPath = os.ExpandEnv(c.Server.DBPath)
	c.Log.File = os.ExpandEnv(c.Log.File)
}
