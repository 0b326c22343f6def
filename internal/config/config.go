package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Archive modes recognised by ARCHIVE_MODE.
const (
	ModeAuto   = "auto"
	ModeRemote = "remote"
	ModeMock   = "mock"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	APIBaseURL         string         `mapstructure:"api_base_url"`
	APIKey             string         `mapstructure:"ny_times_api_key"`
	MockAPI            bool           `mapstructure:"mock_api"`
	ArchiveMode        string         `mapstructure:"archive_mode"`
	APIDelayMs         int64          `mapstructure:"api_delay_ms"`
	CORSProxyURL       string         `mapstructure:"cors_proxy_url"`
	RatePerMinute      float64        `mapstructure:"archive_rate_per_minute"`
	HTTPTimeoutSeconds int64          `mapstructure:"http_timeout_seconds"`
	SyntheticSeed      uint64         `mapstructure:"synthetic_seed"`
	ReferenceTimezone  string         `mapstructure:"reference_timezone"`
	APIDelay           time.Duration  `mapstructure:"-"`
	HTTPTimeout        time.Duration  `mapstructure:"-"`
	Location           *time.Location `mapstructure:"-"`

	PollIntervalSeconds int64         `mapstructure:"poll_interval_seconds"`
	PollWindowSeconds   int64         `mapstructure:"poll_window_seconds"`
	PollSinceLast       bool          `mapstructure:"poll_since_last"`
	PollInterval        time.Duration `mapstructure:"-"`
	PollWindow          time.Duration `mapstructure:"-"`

	ListenAddr     string `mapstructure:"listen_addr"`
	PublishersFile string `mapstructure:"publishers_file"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	RedisAddr              string        `mapstructure:"redis_addr"`
	RedisPassword          string        `mapstructure:"redis_password"`
	RedisDB                int           `mapstructure:"redis_db"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// placeholderKeys are values shipped in sample env files that must never reach the archive API.
var placeholderKeys = map[string]struct{}{
	"your_api_key_here":     {},
	"your-api-key":          {},
	"your_ny_times_api_key": {},
	"<api-key>":             {},
	"changeme":              {},
	"xxx":                   {},
}

// ValidAPIKey reports whether key is present and not a placeholder sentinel.
func ValidAPIKey(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	_, placeholder := placeholderKeys[strings.ToLower(key)]
	return !placeholder
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "khobor-reader")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_base_url", "https://api.nytimes.com/svc")
	v.SetDefault("ny_times_api_key", "")
	v.SetDefault("mock_api", false)
	v.SetDefault("archive_mode", ModeAuto)
	v.SetDefault("api_delay_ms", 1000)
	v.SetDefault("cors_proxy_url", "")
	v.SetDefault("archive_rate_per_minute", 5)
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("synthetic_seed", 1)
	v.SetDefault("reference_timezone", "UTC")
	v.SetDefault("poll_interval_seconds", 30)
	v.SetDefault("poll_window_seconds", 30)
	v.SetDefault("poll_since_last", false)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("publishers_file", "")
	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/announced.db")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("storage_ttl_seconds", int64((5*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolve validates raw values and derives durations, location and the effective archive mode.
func (c *Config) resolve() error {
	c.ArchiveMode = strings.ToLower(strings.TrimSpace(c.ArchiveMode))
	switch c.ArchiveMode {
	case "":
		c.ArchiveMode = ModeAuto
	case ModeAuto, ModeRemote, ModeMock:
	default:
		return fmt.Errorf("invalid archive_mode %q (expected auto, remote or mock)", c.ArchiveMode)
	}
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	c.CORSProxyURL = strings.TrimRight(strings.TrimSpace(c.CORSProxyURL), "/")

	// A missing key forces synthetic data unless remote-only was pinned explicitly.
	if c.MockAPI {
		c.ArchiveMode = ModeMock
	} else if !ValidAPIKey(c.APIKey) && c.ArchiveMode == ModeAuto {
		c.ArchiveMode = ModeMock
	}

	if c.APIBaseURL == "" {
		return fmt.Errorf("invalid api_base_url (must not be empty)")
	}
	if c.APIDelayMs < 0 {
		return fmt.Errorf("invalid api_delay_ms (must not be negative)")
	}
	c.APIDelay = time.Duration(c.APIDelayMs) * time.Millisecond

	if c.RatePerMinute < 0 {
		return fmt.Errorf("invalid archive_rate_per_minute (must not be negative)")
	}
	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	c.HTTPTimeout = time.Duration(c.HTTPTimeoutSeconds) * time.Second

	loc, err := time.LoadLocation(strings.TrimSpace(c.ReferenceTimezone))
	if err != nil {
		return fmt.Errorf("invalid reference_timezone %q: %w", c.ReferenceTimezone, err)
	}
	c.Location = loc

	if c.PollIntervalSeconds <= 0 {
		return fmt.Errorf("invalid poll_interval_seconds (must be positive seconds)")
	}
	if c.PollWindowSeconds <= 0 {
		return fmt.Errorf("invalid poll_window_seconds (must be positive seconds)")
	}
	c.PollInterval = time.Duration(c.PollIntervalSeconds) * time.Second
	c.PollWindow = time.Duration(c.PollWindowSeconds) * time.Second

	if c.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if c.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	c.StorageTTL = time.Duration(c.StorageTTLSeconds) * time.Second
	c.StorageCleanupInterval = time.Duration(c.StorageCleanupSeconds) * time.Second

	return nil
}

// Redacted returns a copy safe to log: the API key is masked.
func (c Config) Redacted() Config {
	if c.APIKey != "" {
		c.APIKey = "***"
	}
	if c.RedisPassword != "" {
		c.RedisPassword = "***"
	}
	return c
}
