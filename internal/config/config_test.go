package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, SecuenciaStore, cfg.SecuenciaBackend)
	assert.Equal(t, 10*time.Minute, cfg.ReconciliacionIntervalo)
	assert.Equal(t, 30*time.Second, cfg.CBOpenTimeout)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Entorno(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("SECUENCIA_BACKEND", "redis")
	t.Setenv("RECONCILIACION_INTERVALO", "1m")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, SecuenciaRedis, cfg.SecuenciaBackend)
	assert.Equal(t, time.Minute, cfg.ReconciliacionIntervalo)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_DriverDesconocido(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORE_DRIVER", "cassandra")

	_, err := Load()
	assert.Error(t, err)
}
