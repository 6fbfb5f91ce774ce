// Package config loads runtime settings from the environment (and an optional .env file).
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"go-inventory-pos/pkg/database"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogLevel        string

	DB database.Config

	LowStockThreshold decimal.Decimal
	TxTimeout         time.Duration
	TxMaxAttempts     int
	TxRetryBackoff    time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiEnv(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func durEnvMs(key string, defMs int) time.Duration {
	return time.Duration(atoiEnv(key, defMs)) * time.Millisecond
}

func durEnvS(key string, defSec int) time.Duration {
	return time.Duration(atoiEnv(key, defSec)) * time.Second
}

func decimalEnv(key string, def decimal.Decimal) decimal.Decimal {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		log.Printf("config: invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

// Load reads .env when present, then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on System Env")
	}

	attempts := atoiEnv("TX_MAX_ATTEMPTS", 3)
	if attempts < 1 {
		attempts = 1
	}

	return Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":3000"),
		ShutdownTimeout: durEnvS("SHUTDOWN_TIMEOUT", 15),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DB: database.Config{
			Driver:        getEnv("DB_DRIVER", database.DriverPostgres),
			URL:           os.Getenv("DATABASE_URL"),
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      os.Getenv("DB_PASSWORD"),
			Name:          getEnv("DB_NAME", "inventory"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			TimeZone:      getEnv("DB_TIMEZONE", "UTC"),
			SQLitePath:    getEnv("SQLITE_PATH", "inventory.db"),
			MaxIdleConns:  atoiEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:  atoiEnv("DB_MAX_OPEN_CONNS", 100),
			LogLevel:      getEnv("DB_LOG_LEVEL", "warn"),
			SlowThreshold: durEnvMs("DB_SLOW_THRESHOLD_MS", 1000),
		},
		LowStockThreshold: decimalEnv("LOW_STOCK_THRESHOLD", decimal.NewFromInt(10)),
		TxTimeout:         durEnvMs("TX_TIMEOUT_MS", 5000),
		TxMaxAttempts:     attempts,
		TxRetryBackoff:    durEnvMs("TX_RETRY_BACKOFF_MS", 50),
	}
}
