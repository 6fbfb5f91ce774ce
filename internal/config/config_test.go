package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"HTTP_ADDR", "SHUTDOWN_TIMEOUT", "LOG_LEVEL", "DB_DRIVER", "DATABASE_URL",
		"LOW_STOCK_THRESHOLD", "TX_TIMEOUT_MS", "TX_MAX_ATTEMPTS", "TX_RETRY_BACKOFF_MS",
		"DB_MAX_OPEN_CONNS", "DB_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}

	c := Load()
	assert.Equal(t, ":3000", c.HTTPAddr)
	assert.Equal(t, 15*time.Second, c.ShutdownTimeout)
	assert.Equal(t, "postgres", c.DB.Driver)
	assert.Equal(t, 100, c.DB.MaxOpenConns)
	assert.True(t, c.LowStockThreshold.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 5*time.Second, c.TxTimeout)
	assert.Equal(t, 3, c.TxMaxAttempts)
	assert.Equal(t, 50*time.Millisecond, c.TxRetryBackoff)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("LOW_STOCK_THRESHOLD", "2.5")
	t.Setenv("TX_TIMEOUT_MS", "250")
	t.Setenv("TX_MAX_ATTEMPTS", "5")

	c := Load()
	assert.Equal(t, ":9090", c.HTTPAddr)
	assert.Equal(t, "sqlite", c.DB.Driver)
	assert.Equal(t, "/tmp/x.db", c.DB.SQLitePath)
	assert.Equal(t, "2.5", c.LowStockThreshold.String())
	assert.Equal(t, 250*time.Millisecond, c.TxTimeout)
	assert.Equal(t, 5, c.TxMaxAttempts)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("TX_MAX_ATTEMPTS", "0")
	t.Setenv("TX_TIMEOUT_MS", "abc")
	t.Setenv("LOW_STOCK_THRESHOLD", "-1")

	c := Load()
	assert.Equal(t, 1, c.TxMaxAttempts)
	assert.Equal(t, 5*time.Second, c.TxTimeout)
	assert.True(t, c.LowStockThreshold.Equal(decimal.NewFromInt(10)))
}
