package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoragePostgres, cfg.App.Storage)
	assert.Equal(t, "Asia/Seoul", cfg.App.Timezone)
	assert.Equal(t, 3, cfg.Ledger.MaxRetries)
	assert.Equal(t, 20*time.Millisecond, cfg.Ledger.RetryBase)
	assert.Equal(t, 180, cfg.Snapshot.RetentionDays)
	assert.Equal(t, time.Hour, cfg.Cache.FlowTTL)
	assert.Equal(t, 60*time.Second, cfg.Cache.ListTTL)
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	t.Setenv("APP_STORAGE", "memory")
	t.Setenv("DB_LOCK_TIMEOUT", "500ms")
	t.Setenv("LEDGER_MAX_RETRIES", "5")
	t.Setenv("HTTP_PORT", "9000")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.StorageMemory, cfg.App.Storage)
	assert.Equal(t, 500*time.Millisecond, cfg.DB.LockTimeout)
	assert.Equal(t, 5, cfg.Ledger.MaxRetries)
	assert.Equal(t, "0.0.0.0:9000", cfg.HTTP.Addr())
}

func TestLoad_AlmacenamientoInvalido(t *testing.T) {
	t.Setenv("APP_STORAGE", "sqlite")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDSN_EscapaContrasena(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss/word", DBName: "x", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss%2Fword@db:5432/x?sslmode=disable", c.DSN())
	c.DatabaseURL = "postgres://other"
	assert.Equal(t, "postgres://other", c.ConnectionString())
}

func TestLocation_ZonaInvalidaEsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, config.AppConfig{Timezone: "Marte/Olympus"}.Location())
}
