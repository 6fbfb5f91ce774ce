// Package app wires repositories and services on top of an open database.
// Both the HTTP server and the admin CLI build their core through it.
package app

import (
	"fmt"
	"log/slog"

	"go-inventory-pos/internal/config"
	"go-inventory-pos/internal/obs"
	"go-inventory-pos/internal/repository"
	"go-inventory-pos/internal/service"
	"go-inventory-pos/pkg/database"

	"gorm.io/gorm"
)

type Core struct {
	DB      *gorm.DB
	Catalog repository.CatalogRepository

	Stock        service.StockService
	Sessions     service.SessionService
	Transactions service.TransactionService
	Settlements  service.SettlementService
	Audit        service.AuditService
	Reports      service.ReportService

	ownsDB bool
}

type Options struct {
	Config   config.Config
	Logger   *slog.Logger
	Notifier service.Notifier
	Events   service.EventPublisher
}

// Open connects to the configured database and migrates the schema.
func Open(cfg config.Config) (*gorm.DB, error) {
	db, err := database.Connect(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Connect opens the database and builds a core that closes it on Close.
func Connect(opts Options) (*Core, error) {
	db, err := Open(opts.Config)
	if err != nil {
		return nil, err
	}
	c := NewCore(db, opts)
	c.ownsDB = true
	return c, nil
}

// NewCore wires the services over db. The caller keeps ownership of db.
func NewCore(db *gorm.DB, opts Options) *Core {
	cfg := opts.Config
	if opts.Logger == nil {
		opts.Logger = obs.Logger
	}
	runner := service.NewTxRunner(db, service.TxOptions{
		Timeout:     cfg.TxTimeout,
		MaxAttempts: cfg.TxMaxAttempts,
		Backoff:     cfg.TxRetryBackoff,
	}, opts.Logger)

	catalog := repository.NewCatalogRepo(db)
	deps := service.Deps{
		Runner:            runner,
		Catalog:           catalog,
		Stocks:            repository.NewStockRepo(db),
		Transactions:      repository.NewTransactionRepo(db),
		Settlements:       repository.NewSettlementRepo(db),
		Sessions:          repository.NewSessionRepo(db),
		Revisions:         repository.NewRevisionRepo(db),
		Notifier:          opts.Notifier,
		Events:            opts.Events,
		Logger:            opts.Logger,
		LowStockThreshold: cfg.LowStockThreshold,
	}

	c := &Core{DB: db, Catalog: catalog}
	c.Stock = service.NewStockService(deps)
	c.Sessions = service.NewSessionService(deps)
	c.Transactions = service.NewTransactionService(deps, c.Sessions)
	c.Settlements = service.NewSettlementService(deps, c.Stock, c.Transactions, c.Sessions)
	c.Audit = service.NewAuditService(deps)
	c.Reports = service.NewReportService(deps)
	return c
}

func (c *Core) Close() error {
	if !c.ownsDB {
		return nil
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
