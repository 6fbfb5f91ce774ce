package service

import (
	"context"
	"testing"
	"time"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockStats(t *testing.T) {
	e := newEnv(t)
	testutil.PutStock(t, e.db, e.f.Product.ID, e.f.Store.ID, "40")
	testutil.PutStock(t, e.db, e.f.Product2.ID, e.f.Store.ID, "2")
	testutil.PutStock(t, e.db, e.f.Product.ID, e.f.Store2.ID, "1")

	stats, err := NewReportService(e.deps).GetStockStats(context.Background(), e.f.Store.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Products)
	assert.EqualValues(t, 1, stats.LowStock)
	assert.Equal(t, "42", stats.Units.String())
	// 40 * 2.50 + 2 * 1.99
	assert.Equal(t, "103.98", stats.Valuation.String())

	_, err = NewReportService(e.deps).GetStockStats(context.Background(), uuid.New())
	assert.True(t, IsNotFound(err))
}

func TestMovementBucketsByDay(t *testing.T) {
	e := newEnv(t)
	s := testutil.OpenSession(t, e.db, e.f, "0")
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	put := func(at time.Time, typ model.TransactionType, total string) {
		tx := model.Transaction{
			Total: testutil.Dec(total), DateTime: at, PaymentMethod: model.PaymentCash,
			Type: typ, StoreID: e.f.Store.ID, SessionPosID: s.ID,
		}
		require.NoError(t, e.db.Create(&tx).Error)
	}
	put(now.Add(-time.Hour), model.TxSale, "10.50")
	put(now.Add(-2*time.Hour), model.TxSale, "4.25")
	put(now.AddDate(0, 0, -2), model.TxPurchase, "30")
	put(now.AddDate(0, 0, -2), model.TxOther, "99")
	put(now.AddDate(0, 0, -7), model.TxSale, "1000")

	r := NewReportService(e.deps).(*reportService)
	r.now = func() time.Time { return now }

	days, err := r.GetMovement(context.Background(), e.f.Store.ID, 3)
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "2026-03-08", days[0].Date)
	assert.Equal(t, "30", days[0].Purchases.String())
	assert.Equal(t, 1, days[0].Count)
	assert.True(t, days[1].Sales.IsZero())
	assert.Equal(t, "2026-03-10", days[2].Date)
	assert.Equal(t, "14.75", days[2].Sales.String())
	assert.Equal(t, 2, days[2].Count)

	_, err = r.GetMovement(context.Background(), e.f.Store.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = r.GetMovement(context.Background(), e.f.Store.ID, MaxMovementDays+1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
