package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ConnectSQLite opens a local database file (or a memory DSN).
// SQLite has a single writer, so the pool defaults to one connection;
// cfg.SQLiteConns > 1 widens it for file databases opened with a busy timeout.
func ConnectSQLite(cfg Config) (*gorm.DB, error) {
	dsn := cfg.SQLitePath
	if dsn == "" {
		dsn = "inventory.db"
	}
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_busy_timeout=5000"
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	conns := cfg.SQLiteConns
	if conns < 1 {
		conns = 1
	}
	sqlDB.SetMaxOpenConns(conns)
	sqlDB.SetMaxIdleConns(conns)
	return db, nil
}
