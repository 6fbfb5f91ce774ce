package app

import (
	"context"
	"testing"

	"go-inventory-pos/internal/config"
	"go-inventory-pos/internal/service"
	"go-inventory-pos/internal/testutil"
	"go-inventory-pos/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	cfg := config.Config{DB: database.Config{Driver: database.DriverSQLite, SQLitePath: "file:apptest?mode=memory&cache=shared", LogLevel: "silent"}}
	core, err := Connect(Options{Config: cfg})
	require.NoError(t, err)

	assert.True(t, core.DB.Migrator().HasTable("stocks"))
	assert.True(t, core.DB.Migrator().HasTable("session_pos"))
	require.NoError(t, core.Close())

	sqlDB, err := core.DB.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping())
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Connect(Options{Config: config.Config{DB: database.Config{Driver: "oracle"}}})
	assert.Error(t, err)
}

func TestCoreServicesShareDatabase(t *testing.T) {
	db := testutil.NewDB(t)
	f := testutil.Seed(t, db)
	core := NewCore(db, Options{Config: config.Config{TxMaxAttempts: 1, LowStockThreshold: testutil.Dec("10")}})
	require.NoError(t, core.Close())
	require.NoError(t, db.Exec("SELECT 1").Error)

	ctx := context.Background()
	_, err := core.Stock.AddStock(ctx, service.StockRequest{ProductID: f.Product.ID, StoreID: f.Store.ID, Quantity: testutil.Dec("4")})
	require.NoError(t, err)

	s, err := core.Stock.GetStock(ctx, f.Product.ID, f.Store.ID)
	require.NoError(t, err)
	assert.Equal(t, "4", s.Quantity.String())

	p, err := core.Catalog.FindProductBySKU(ctx, "TEA-001")
	require.NoError(t, err)
	assert.Equal(t, f.Product.ID, p.ID)
}
