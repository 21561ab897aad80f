package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_PORT", "LOG_LEVEL", "LEDGER_BACKEND", "LEDGER_SQLITE_PATH", "LEDGER_REMOTE_URL",
		"LEDGER_SEED_SAMPLE", "LEDGER_REMOTE_FALLBACK", "MONGODB_URI", "MONGODB_DB_NAME", "GOOGLE_SHEETS_CREDENTIALS_PATH",
		"GOOGLE_SHEET_DATABASE_ID", "REPORT_CRON_SCHEDULE", "TIMEZONE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, BackendSQLite, cfg.Ledger.Backend)
	assert.Equal(t, "krishichain.db", cfg.Ledger.SQLitePath)
	assert.False(t, cfg.Ledger.SeedSample)
	assert.False(t, cfg.Ledger.RemoteFallback)
	assert.Equal(t, "krishichain", cfg.MongoDB.DBName)
	assert.False(t, cfg.Sheets.Enabled())
	assert.Equal(t, "0 20 * * *", cfg.Reporting.CronSchedule)
	assert.Equal(t, "Asia/Kolkata", cfg.Reporting.Timezone)
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set.
	require.NoError(t, os.Unsetenv("LEDGER_BACKEND"))
	require.NoError(t, os.Unsetenv("LEDGER_SEED_SAMPLE"))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LEDGER_BACKEND=Memory\nLEDGER_SEED_SAMPLE=true\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("LEDGER_BACKEND")
		_ = os.Unsetenv("LEDGER_SEED_SAMPLE")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Ledger.Backend)
	assert.True(t, cfg.Ledger.SeedSample)
}

func TestLoadRejectsBadSeedFlag(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEDGER_SEED_SAMPLE", "sometimes")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "LEDGER_SEED_SAMPLE")
}

func TestLoadRemoteFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEDGER_BACKEND", BackendRemote)
	t.Setenv("LEDGER_REMOTE_URL", "http://ledger.internal:8080/api")
	t.Setenv("LEDGER_REMOTE_FALLBACK", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, BackendRemote, cfg.Ledger.Backend)
	assert.True(t, cfg.Ledger.RemoteFallback)

	t.Setenv("LEDGER_REMOTE_FALLBACK", "maybe")
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "LEDGER_REMOTE_FALLBACK")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080"},
			Ledger:    LedgerConfig{Backend: BackendMemory},
			MongoDB:   MongoDBConfig{DBName: "krishichain"},
			Reporting: ReportingConfig{CronSchedule: "0 20 * * *", Timezone: "UTC"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "memory backend", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.Ledger.Backend = "redis" }, wantErr: "LEDGER_BACKEND"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Ledger.Backend = BackendSQLite }, wantErr: "LEDGER_SQLITE_PATH"},
		{name: "mongodb without uri", mutate: func(c *Config) { c.Ledger.Backend = BackendMongoDB }, wantErr: "MONGODB_URI"},
		{name: "remote without url", mutate: func(c *Config) { c.Ledger.Backend = BackendRemote }, wantErr: "LEDGER_REMOTE_URL"},
		{
			name:    "sheets half configured",
			mutate:  func(c *Config) { c.Sheets.SpreadsheetID = "sheet-id" },
			wantErr: "GOOGLE_SHEETS_CREDENTIALS_PATH",
		},
		{
			name: "sheets fully configured",
			mutate: func(c *Config) {
				c.Sheets = SheetsConfig{CredentialsPath: "creds.json", SpreadsheetID: "sheet-id"}
			},
		},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: "APP_PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}
