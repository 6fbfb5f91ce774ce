// Package testutil opens migrated in-memory databases and seeds catalog fixtures for tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// NewDB returns a migrated SQLite memory database private to the test.
// The pool holds a single connection, so code running inside a transaction
// must only use the tx handle.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("file:testdb%d_%s?mode=memory&cache=shared&_foreign_keys=on&_busy_timeout=5000", dbSeq.Add(1), uuid.NewString()[:8])
	db, err := database.Connect(database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: name,
		LogLevel:   "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// NewFileDB returns a migrated SQLite file database in a temp dir with a pool
// of conns connections, so concurrent transactions really overlap.
func NewFileDB(t testing.TB, conns int) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.db")
	db, err := database.Connect(database.Config{
		Driver:      database.DriverSQLite,
		SQLitePath:  "file:" + path + "?_foreign_keys=on&_busy_timeout=10000&_journal_mode=WAL",
		SQLiteConns: conns,
		LogLevel:    "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Fixture is a small catalog: one store with one POS, two products, a provider and a client.
type Fixture struct {
	Store    model.Store
	Store2   model.Store
	Pos      model.Pos
	Product  model.Product
	Product2 model.Product
	Provider model.Provider
	Client   model.Client
	Category model.Category
	Employee uuid.UUID
}

// Seed inserts the fixture catalog directly through gorm.
func Seed(t testing.TB, db *gorm.DB) *Fixture {
	t.Helper()
	f := &Fixture{
		Store:    model.Store{Name: "Main Street", Address: "1 Main St"},
		Store2:   model.Store{Name: "Harbor", Address: "9 Pier Rd"},
		Product:  model.Product{Name: "Green Tea", Price: Dec("2.50"), SKU: "TEA-001", Barcode: "7700001", Brand: "Leafy"},
		Product2: model.Product{Name: "Rice 1kg", Price: Dec("1.99"), SKU: "RICE-001", Barcode: "7700002", Brand: "Paddy"},
		Provider: model.Provider{Name: "Wholesale Co", Email: "orders@wholesale.test"},
		Client:   model.Client{Name: "Jane Doe"},
		Category: model.Category{Name: "Beverages"},
		Employee: uuid.New(),
	}
	require.NoError(t, db.Create(&f.Store).Error)
	require.NoError(t, db.Create(&f.Store2).Error)
	require.NoError(t, db.Create(&f.Product).Error)
	require.NoError(t, db.Create(&f.Product2).Error)
	require.NoError(t, db.Create(&f.Provider).Error)
	require.NoError(t, db.Create(&f.Client).Error)
	require.NoError(t, db.Create(&f.Category).Error)
	require.NoError(t, db.Create(&model.ProductCategory{ProductID: f.Product.ID, CategoryID: f.Category.ID}).Error)
	require.NoError(t, db.Create(&model.ProductProvider{ProductID: f.Product2.ID, ProviderID: f.Provider.ID}).Error)

	f.Pos = model.Pos{StoreID: f.Store.ID, Name: "Till 1", CashAmount: decimal.Zero, Status: model.PosOffline}
	require.NoError(t, db.Create(&f.Pos).Error)
	return f
}

// PutStock sets a stock row without going through the ledger.
func PutStock(t testing.TB, db *gorm.DB, productID, storeID uuid.UUID, qty string) {
	t.Helper()
	require.NoError(t, db.Create(&model.Stock{ProductID: productID, StoreID: storeID, Quantity: Dec(qty)}).Error)
}

// OpenSession inserts an open session for the fixture POS.
func OpenSession(t testing.TB, db *gorm.DB, f *Fixture, opening string) model.SessionPos {
	t.Helper()
	s := model.SessionPos{
		PosID:         f.Pos.ID,
		EmployeeID:    f.Employee,
		OpeningTime:   time.Now().UTC(),
		OpeningAmount: Dec(opening),
	}
	require.NoError(t, db.Create(&s).Error)
	require.NoError(t, db.Model(&model.Pos{}).Where("id = ?", f.Pos.ID).
		Updates(map[string]interface{}{"status": model.PosOnline, "cash_amount": Dec(opening), "employee_id": f.Employee}).Error)
	return s
}
