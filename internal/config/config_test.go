package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AGENDA_CALENDAR_ID", "AGENDA_PAGE_SIZE", "AGENDA_EXCLUDE", "AGENDA_AUTH_STRATEGY",
		"GOOGLE_CLIENT_SECRET_FILE", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET",
		"GOOGLE_APPLICATION_CREDENTIALS", "AGENDA_IMPERSONATE", "AGENDA_TOKEN_STORE",
		"AGENDA_TOKEN_FILE", "AGENDA_OUTPUT_DIR", "AGENDA_TIMEZONE", "AGENDA_LISTEN",
		"AGENDA_METRICS_LISTEN", "AGENDA_SHARED_SECRET", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultCalendarID, cfg.Calendar.ID)
	assert.Equal(t, MaxPageSize, cfg.Calendar.PageSize)
	assert.Equal(t, []string{"Modelo agendamento", "Dados do hospital"}, cfg.Calendar.Exclude)
	assert.Equal(t, StrategyLocalServer, cfg.Auth.Strategy)
	assert.Equal(t, TokenStoreFile, cfg.Auth.TokenStore)
	assert.Equal(t, "token.json", filepath.Base(cfg.Auth.TokenFile))
	assert.Equal(t, 2*time.Minute, cfg.Auth.Timeout)
	assert.Equal(t, FormatXLSX, cfg.Export.Format)
	assert.Equal(t, TimeFormatDisplay, cfg.Export.TimeFormat)
	assert.Equal(t, 10*time.Minute, cfg.Server.DownloadTTL)
	assert.Equal(t, AccessOpen, cfg.Access.Mode)
	assert.Equal(t, 30, cfg.Schedule.DaysAhead)
	assert.NoError(t, cfg.Validate())
}

func TestNormalize_KeepsExplicitEmptyExclusions(t *testing.T) {
	cfg := &Config{Calendar: CalendarConfig{Exclude: []string{}}}
	cfg.Normalize()
	assert.Empty(t, cfg.Calendar.Exclude)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultCalendarID, cfg.Calendar.ID)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
calendar:
  id: team@group.calendar.google.com
  page_size: 250
  exclude: ["Template"]
auth:
  strategy: console
  timeout: 30s
export:
  format: ics
  time_format: raw
  timezone: America/Sao_Paulo
access:
  mode: shared-secret
  secret: s3cret
schedule:
  cron: "*/30 * * * *"
  days_back: 7
  days_ahead: 14
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "team@group.calendar.google.com", cfg.Calendar.ID)
	assert.Equal(t, 250, cfg.Calendar.PageSize)
	assert.Equal(t, []string{"Template"}, cfg.Calendar.Exclude)
	assert.Equal(t, StrategyConsole, cfg.Auth.Strategy)
	assert.Equal(t, 30*time.Second, cfg.Auth.Timeout)
	assert.Equal(t, FormatICS, cfg.Export.Format)
	assert.Equal(t, TimeFormatRaw, cfg.Export.TimeFormat)
	assert.Equal(t, "*/30 * * * *", cfg.Schedule.Cron)
	assert.Equal(t, 7, cfg.Schedule.DaysBack)
	assert.Equal(t, 14, cfg.Schedule.DaysAhead)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", loc.String())
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("calendar: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AGENDA_CALENDAR_ID", "env@group.calendar.google.com")
	t.Setenv("AGENDA_PAGE_SIZE", "100")
	t.Setenv("AGENDA_EXCLUDE", "A, B ,,C")
	t.Setenv("GOOGLE_CLIENT_ID", "id.apps.googleusercontent.com")
	t.Setenv("GOOGLE_CLIENT_SECRET", "shh")
	t.Setenv("AGENDA_SHARED_SECRET", "gate")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env@group.calendar.google.com", cfg.Calendar.ID)
	assert.Equal(t, 100, cfg.Calendar.PageSize)
	assert.Equal(t, []string{"A", "B", "C"}, cfg.Calendar.Exclude)
	assert.Equal(t, "id.apps.googleusercontent.com", cfg.Auth.ClientID)
	assert.Equal(t, "shh", cfg.Auth.ClientSecret)
	assert.Equal(t, AccessSharedSecret, cfg.Access.Mode)
	assert.Equal(t, "gate", cfg.Access.Secret)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_BadPageSizeEnvIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("AGENDA_PAGE_SIZE", "lots")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, cfg.Calendar.PageSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "page size too large", mutate: func(c *Config) { c.Calendar.PageSize = 2501 }, wantErr: "page_size"},
		{name: "page size negative", mutate: func(c *Config) { c.Calendar.PageSize = -1 }, wantErr: "page_size"},
		{name: "unknown strategy", mutate: func(c *Config) { c.Auth.Strategy = "magic" }, wantErr: "auth.strategy"},
		{name: "service account without key", mutate: func(c *Config) { c.Auth.Strategy = StrategyServiceAccount }, wantErr: "service_account_file"},
		{name: "unknown token store", mutate: func(c *Config) { c.Auth.TokenStore = "vault" }, wantErr: "token_store"},
		{name: "unknown format", mutate: func(c *Config) { c.Export.Format = "csv" }, wantErr: "export.format"},
		{name: "unknown time format", mutate: func(c *Config) { c.Export.TimeFormat = "iso" }, wantErr: "time_format"},
		{name: "bad timezone", mutate: func(c *Config) { c.Export.Timezone = "Mars/Olympus" }, wantErr: "timezone"},
		{name: "shared secret missing", mutate: func(c *Config) { c.Access.Mode = AccessSharedSecret }, wantErr: "access.secret"},
		{name: "bcrypt hash missing", mutate: func(c *Config) { c.Access.Mode = AccessBcrypt }, wantErr: "secret_hash"},
		{name: "unknown access mode", mutate: func(c *Config) { c.Access.Mode = "ldap" }, wantErr: "access.mode"},
		{name: "negative window", mutate: func(c *Config) { c.Schedule.DaysBack = -1 }, wantErr: "days_back"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLocation_Empty(t *testing.T) {
	loc, err := Default().Location()
	require.NoError(t, err)
	assert.Nil(t, loc)
}
