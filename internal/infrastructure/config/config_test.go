package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	path := writeConfig(t, "environment: test\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, 10, cfg.Query.PageSize)
	assert.Equal(t, 7, cfg.Query.HistoryPageSize)
	assert.Equal(t, 40000, cfg.Query.MaxRecords)
	assert.Equal(t, "@every 5m", cfg.Scheduler.SnapshotRefreshSpec)
	assert.Equal(t, "test-secret", cfg.Audit.SigningKey)
	assert.Equal(t, 30, cfg.Server.DispositionsPerMin)
	assert.Equal(t, "postgres://postgres:@localhost:5432/fraud_alerts?sslmode=disable", cfg.Database.URL)
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://alerts@db/alerts")
	t.Setenv("REFERENCE_NOW", "2025-09-15")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	path := writeConfig(t, "query:\n  page_size: 25\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres://alerts@db/alerts", cfg.Database.URL)
	assert.Equal(t, 25, cfg.Query.PageSize)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, time.Date(2025, time.September, 15, 0, 0, 0, 0, time.UTC), cfg.Query.ReferenceNow())
}

func TestLoadFile_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		body string
	}{
		{name: "missing jwt secret", body: "environment: test\n"},
		{name: "bad reference date", env: map[string]string{"JWT_SECRET": "s"}, body: "query:\n  reference_date: 15/09/2025\n"},
		{name: "zero page size", env: map[string]string{"JWT_SECRET": "s"}, body: "query:\n  page_size: 0\n"},
		{name: "sendgrid without recipient", env: map[string]string{"JWT_SECRET": "s", "SENDGRID_API_KEY": "SG.x"}, body: "environment: test\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestReferenceNow_FallsBackToClock(t *testing.T) {
	before := time.Now().UTC()
	got := QueryConfig{}.ReferenceNow()
	assert.False(t, got.Before(before.Add(-time.Second)))
}
