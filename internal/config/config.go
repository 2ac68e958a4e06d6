package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultCalendarID is the group calendar the tool was built for.
const DefaultCalendarID = "jh8dpotn9etu9o231tlldvn6ms@group.calendar.google.com"

// MaxPageSize is the largest page size the Calendar API accepts.
const MaxPageSize = 2500

// Credential strategies.
const (
	StrategyLocalServer    = "local-server"
	StrategyConsole        = "console"
	StrategyServiceAccount = "service-account"
)

// Token store backends.
const (
	TokenStoreFile    = "file"
	TokenStoreKeyring = "keyring"
)

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatICS  = "ics"
)

// Time formats for exported timestamps.
const (
	TimeFormatDisplay = "display"
	TimeFormatRaw     = "raw"
)

// Access gate modes.
const (
	AccessOpen         = "open"
	AccessSharedSecret = "shared-secret"
	AccessBcrypt       = "bcrypt"
)

// DefaultExclusions returns the placeholder titles filtered out of every fetch.
func DefaultExclusions() []string {
	return []string{"Modelo agendamento", "Dados do hospital"}
}

// CalendarConfig selects the calendar and how it is paged.
type CalendarConfig struct {
	ID       string   `yaml:"id"`
	PageSize int      `yaml:"page_size"`
	Exclude  []string `yaml:"exclude"`
}

// AuthConfig configures the credential provider and the token store.
type AuthConfig struct {
	// Strategy is one of local-server, console or service-account.
	Strategy string `yaml:"strategy"`

	// ClientSecretFile points at a Google "installed" or "web" client JSON.
	ClientSecretFile string `yaml:"client_secret_file"`
	ClientID         string `yaml:"client_id"`
	ClientSecret     string `yaml:"client_secret"`

	ServiceAccountFile string `yaml:"service_account_file"`
	// Subject is the user impersonated through domain-wide delegation.
	Subject string `yaml:"subject"`

	TokenStore     string `yaml:"token_store"`
	TokenFile      string `yaml:"token_file"`
	KeyringService string `yaml:"keyring_service"`

	ForceConsent bool          `yaml:"force_consent"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ExportConfig controls generated files.
type ExportConfig struct {
	OutputDir  string `yaml:"output_dir"`
	Format     string `yaml:"format"`
	TimeFormat string `yaml:"time_format"`
	// Timezone is an IANA zone for display times; empty keeps each event's offset.
	Timezone string `yaml:"timezone"`
}

// ServerConfig configures the web form and the metrics listener.
type ServerConfig struct {
	Listen        string        `yaml:"listen"`
	MetricsListen string        `yaml:"metrics_listen"`
	DownloadTTL   time.Duration `yaml:"download_ttl"`
}

// AccessConfig configures the download gate.
type AccessConfig struct {
	Mode       string `yaml:"mode"`
	Secret     string `yaml:"secret"`
	SecretHash string `yaml:"secret_hash"`
}

// ScheduleConfig configures periodic exports.
type ScheduleConfig struct {
	Cron      string `yaml:"cron"`
	DaysBack  int    `yaml:"days_back"`
	DaysAhead int    `yaml:"days_ahead"`
}

// LogConfig configures the default slog logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Calendar CalendarConfig `yaml:"calendar"`
	Auth     AuthConfig     `yaml:"auth"`
	Export   ExportConfig   `yaml:"export"`
	Server   ServerConfig   `yaml:"server"`
	Access   AccessConfig   `yaml:"access"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Log      LogConfig      `yaml:"log"`
}

// Default returns an in-memory default configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills missing or zero values with defaults so that partially
// filled files still behave correctly.
func (c *Config) Normalize() {
	if c.Calendar.ID == "" {
		c.Calendar.ID = DefaultCalendarID
	}
	if c.Calendar.PageSize == 0 {
		c.Calendar.PageSize = MaxPageSize
	}
	if c.Calendar.Exclude == nil {
		c.Calendar.Exclude = DefaultExclusions()
	}

	if c.Auth.Strategy == "" {
		c.Auth.Strategy = StrategyLocalServer
	}
	if c.Auth.TokenStore == "" {
		c.Auth.TokenStore = TokenStoreFile
	}
	if c.Auth.TokenFile == "" {
		c.Auth.TokenFile = filepath.Join(userCacheDir(), "agenda-extractor", "token.json")
	}
	if c.Auth.KeyringService == "" {
		c.Auth.KeyringService = "agenda-extractor"
	}
	if c.Auth.Timeout <= 0 {
		c.Auth.Timeout = 2 * time.Minute
	}

	if c.Export.OutputDir == "" {
		c.Export.OutputDir = "."
	}
	if c.Export.Format == "" {
		c.Export.Format = FormatXLSX
	}
	if c.Export.TimeFormat == "" {
		c.Export.TimeFormat = TimeFormatDisplay
	}

	if c.Server.Listen == "" {
		c.Server.Listen = "127.0.0.1:8080"
	}
	if c.Server.MetricsListen == "" {
		c.Server.MetricsListen = "127.0.0.1:9090"
	}
	if c.Server.DownloadTTL <= 0 {
		c.Server.DownloadTTL = 10 * time.Minute
	}

	if c.Access.Mode == "" {
		c.Access.Mode = AccessOpen
	}

	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "0 6 * * *"
	}
	if c.Schedule.DaysAhead == 0 && c.Schedule.DaysBack == 0 {
		c.Schedule.DaysAhead = 30
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate reports values Normalize cannot repair.
func (c *Config) Validate() error {
	var errs []error

	if c.Calendar.PageSize < 1 || c.Calendar.PageSize > MaxPageSize {
		errs = append(errs, fmt.Errorf("calendar.page_size must be between 1 and %d, got %d", MaxPageSize, c.Calendar.PageSize))
	}

	switch c.Auth.Strategy {
	case StrategyLocalServer, StrategyConsole:
	case StrategyServiceAccount:
		if c.Auth.ServiceAccountFile == "" {
			errs = append(errs, errors.New("auth.service_account_file is required for the service-account strategy"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown auth.strategy %q", c.Auth.Strategy))
	}

	switch c.Auth.TokenStore {
	case TokenStoreFile, TokenStoreKeyring:
	default:
		errs = append(errs, fmt.Errorf("unknown auth.token_store %q", c.Auth.TokenStore))
	}

	switch c.Export.Format {
	case FormatXLSX, FormatICS:
	default:
		errs = append(errs, fmt.Errorf("unknown export.format %q", c.Export.Format))
	}

	switch c.Export.TimeFormat {
	case TimeFormatDisplay, TimeFormatRaw:
	default:
		errs = append(errs, fmt.Errorf("unknown export.time_format %q", c.Export.TimeFormat))
	}

	if c.Export.Timezone != "" {
		if _, err := time.LoadLocation(c.Export.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("invalid export.timezone: %w", err))
		}
	}

	switch c.Access.Mode {
	case AccessOpen:
	case AccessSharedSecret:
		if c.Access.Secret == "" {
			errs = append(errs, errors.New("access.secret is required for the shared-secret mode"))
		}
	case AccessBcrypt:
		if c.Access.SecretHash == "" {
			errs = append(errs, errors.New("access.secret_hash is required for the bcrypt mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown access.mode %q", c.Access.Mode))
	}

	if c.Schedule.DaysBack < 0 || c.Schedule.DaysAhead < 0 {
		errs = append(errs, errors.New("schedule.days_back and schedule.days_ahead must not be negative"))
	}

	return errors.Join(errs...)
}

// Location returns the configured display zone, or nil to keep event offsets.
func (c *Config) Location() (*time.Location, error) {
	if c.Export.Timezone == "" {
		return nil, nil
	}
	return time.LoadLocation(c.Export.Timezone)
}

// DefaultPath returns <user config dir>/agenda-extractor/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "agenda-extractor", "config.yaml")
}

// Load reads the YAML file at path, applies environment overrides and
// normalizes the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.ApplyEnv()
	cfg.Normalize()
	return cfg, nil
}

// ApplyEnv overrides file values with environment variables that are set.
func (c *Config) ApplyEnv() {
	c.Calendar.ID = getEnvOrDefault("AGENDA_CALENDAR_ID", c.Calendar.ID)
	c.Calendar.PageSize = getEnvIntOrDefault("AGENDA_PAGE_SIZE", c.Calendar.PageSize)
	if v := os.Getenv("AGENDA_EXCLUDE"); v != "" {
		c.Calendar.Exclude = splitList(v)
	}

	c.Auth.Strategy = getEnvOrDefault("AGENDA_AUTH_STRATEGY", c.Auth.Strategy)
	c.Auth.ClientSecretFile = getEnvOrDefault("GOOGLE_CLIENT_SECRET_FILE", c.Auth.ClientSecretFile)
	c.Auth.ClientID = getEnvOrDefault("GOOGLE_CLIENT_ID", c.Auth.ClientID)
	c.Auth.ClientSecret = getEnvOrDefault("GOOGLE_CLIENT_SECRET", c.Auth.ClientSecret)
	c.Auth.ServiceAccountFile = getEnvOrDefault("GOOGLE_APPLICATION_CREDENTIALS", c.Auth.ServiceAccountFile)
	c.Auth.Subject = getEnvOrDefault("AGENDA_IMPERSONATE", c.Auth.Subject)
	c.Auth.TokenStore = getEnvOrDefault("AGENDA_TOKEN_STORE", c.Auth.TokenStore)
	c.Auth.TokenFile = getEnvOrDefault("AGENDA_TOKEN_FILE", c.Auth.TokenFile)

	c.Export.OutputDir = getEnvOrDefault("AGENDA_OUTPUT_DIR", c.Export.OutputDir)
	c.Export.Timezone = getEnvOrDefault("AGENDA_TIMEZONE", c.Export.Timezone)

	c.Server.Listen = getEnvOrDefault("AGENDA_LISTEN", c.Server.Listen)
	c.Server.MetricsListen = getEnvOrDefault("AGENDA_METRICS_LISTEN", c.Server.MetricsListen)

	if v := os.Getenv("AGENDA_SHARED_SECRET"); v != "" {
		c.Access.Secret = v
		if c.Access.Mode == "" || c.Access.Mode == AccessOpen {
			c.Access.Mode = AccessSharedSecret
		}
	}

	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnvOrDefault("LOG_FORMAT", c.Log.Format)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func userCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	return os.TempDir()
}
