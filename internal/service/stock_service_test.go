package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndGetStock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	s, err := e.stock.AddStock(ctx, StockRequest{ProductID: e.f.Product.ID, StoreID: e.f.Store.ID, Quantity: testutil.Dec("25.5")})
	require.NoError(t, err)
	assert.Equal(t, "25.5", s.Quantity.String())

	got, err := e.stock.GetStock(ctx, e.f.Product.ID, e.f.Store.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(testutil.Dec("25.5")))

	_, err = e.stock.AddStock(ctx, StockRequest{ProductID: e.f.Product.ID, StoreID: e.f.Store.ID, Quantity: testutil.Dec("1")})
	assert.True(t, errors.Is(err, ErrConflict))

	_, err = e.stock.AddStock(ctx, StockRequest{ProductID: uuid.New(), StoreID: e.f.Store.ID, Quantity: testutil.Dec("1")})
	assert.True(t, IsNotFound(err))

	_, err = e.stock.GetStock(ctx, e.f.Product2.ID, e.f.Store.ID)
	assert.True(t, IsNotFound(err))
}

func TestStockInputValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.stock.AddStock(ctx, StockRequest{ProductID: e.f.Product.ID, StoreID: e.f.Store.ID, Quantity: testutil.Dec("-1")})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = e.stock.IncreaseStock(ctx, StockRequest{ProductID: e.f.Product.ID, StoreID: e.f.Store.ID, Quantity: testutil.Dec("0")})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = e.stock.UpdateStock(ctx, StockRequest{ProductID: e.f.Product.ID, StoreID: e.f.Store.ID, Quantity: testutil.Dec("1.0001")})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = e.stock.AddStock(ctx, StockRequest{StoreID: e.f.Store.ID, Quantity: testutil.Dec("1")})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestDecreaseNeverGoesNegative(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	testutil.PutStock(t, e.db, e.f.Product.ID, e.f.Store.ID, "5")

	_, err := e.stock.DecreaseStock(ctx, StockRequest{ProductID: e.f.Product.ID, StoreID: e.f.Store.ID, Quantity: testutil.Dec("5.001")})
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Equal(t, "5", e.quantity(t, e.f.Product.ID, e.f.Store.ID))

	s, err := e.stock.DecreaseStock(ctx, StockRequest{ProductID: e.f.Product.ID, StoreID: e.f.Store.ID, Quantity: testutil.Dec("5")})
	require.NoError(t, err)
	assert.True(t, s.Quantity.IsZero())

	_, err = e.stock.DecreaseStock(ctx, StockRequest{ProductID: e.f.Product2.ID, StoreID: e.f.Store.ID, Quantity: testutil.Dec("1")})
	assert.True(t, IsNotFound(err))
}

func TestIncreaseCreatesRow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	s, err := e.stock.IncreaseStock(ctx, StockRequest{ProductID: e.f.Product.ID, StoreID: e.f.Store2.ID, Quantity: testutil.Dec("12")})
	require.NoError(t, err)
	assert.Equal(t, "12", s.Quantity.String())

	_, err = e.stock.IncreaseStock(ctx, StockRequest{ProductID: uuid.New(), StoreID: e.f.Store2.ID, Quantity: testutil.Dec("1")})
	assert.True(t, IsNotFound(err))
}

func TestUpdateAndRemoveStock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.stock.UpdateStock(ctx, StockRequest{ProductID: e.f.Product.ID, StoreID: e.f.Store.ID, Quantity: testutil.Dec("3")})
	assert.True(t, IsNotFound(err))

	testutil.PutStock(t, e.db, e.f.Product.ID, e.f.Store.ID, "20")
	s, err := e.stock.UpdateStock(ctx, StockRequest{ProductID: e.f.Product.ID, StoreID: e.f.Store.ID, Quantity: testutil.Dec("3")})
	require.NoError(t, err)
	assert.Equal(t, "3", s.Quantity.String())

	err = e.stock.RemoveStock(ctx, e.f.Product.ID, e.f.Store.ID)
	assert.True(t, errors.Is(err, ErrConflict))

	_, err = e.stock.UpdateStock(ctx, StockRequest{ProductID: e.f.Product.ID, StoreID: e.f.Store.ID, Quantity: testutil.Dec("0")})
	require.NoError(t, err)
	require.NoError(t, e.stock.RemoveStock(ctx, e.f.Product.ID, e.f.Store.ID))

	err = e.stock.RemoveStock(ctx, e.f.Product.ID, e.f.Store.ID)
	assert.True(t, IsNotFound(err))
}

func TestTransferStock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	testutil.PutStock(t, e.db, e.f.Product.ID, e.f.Store.ID, "30")

	res, err := e.stock.TransferStock(ctx, TransferRequest{
		ProductID: e.f.Product.ID, FromStoreID: e.f.Store.ID, ToStoreID: e.f.Store2.ID, Quantity: testutil.Dec("12.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "17.5", res.From.Quantity.String())
	assert.Equal(t, "12.5", res.To.Quantity.String())
	assert.Contains(t, e.events.events, EventStockUpdate)
}

func TestTransferIsAllOrNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	testutil.PutStock(t, e.db, e.f.Product.ID, e.f.Store.ID, "30")

	// Destination store does not exist: the source decrement must roll back.
	_, err := e.stock.TransferStock(ctx, TransferRequest{
		ProductID: e.f.Product.ID, FromStoreID: e.f.Store.ID, ToStoreID: uuid.New(), Quantity: testutil.Dec("10"),
	})
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "30", e.quantity(t, e.f.Product.ID, e.f.Store.ID))

	_, err = e.stock.TransferStock(ctx, TransferRequest{
		ProductID: e.f.Product.ID, FromStoreID: e.f.Store.ID, ToStoreID: e.f.Store2.ID, Quantity: testutil.Dec("31"),
	})
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Equal(t, "30", e.quantity(t, e.f.Product.ID, e.f.Store.ID))

	var n int64
	require.NoError(t, e.db.Model(&model.Stock{}).Where("store_id = ?", e.f.Store2.ID).Count(&n).Error)
	assert.Zero(t, n)

	_, err = e.stock.TransferStock(ctx, TransferRequest{
		ProductID: e.f.Product.ID, FromStoreID: e.f.Store.ID, ToStoreID: e.f.Store.ID, Quantity: testutil.Dec("1"),
	})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestLowStockAlertOncePerEpisode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := func(q string) StockRequest {
		return StockRequest{ProductID: e.f.Product.ID, StoreID: e.f.Store.ID, Quantity: testutil.Dec(q)}
	}
	testutil.PutStock(t, e.db, e.f.Product.ID, e.f.Store.ID, "15")

	_, err := e.stock.DecreaseStock(ctx, req("7")) // 15 -> 8
	require.NoError(t, err)
	assert.Equal(t, 1, e.notes.count())

	_, err = e.stock.DecreaseStock(ctx, req("3")) // 8 -> 5
	require.NoError(t, err)
	assert.Equal(t, 1, e.notes.count())

	_, err = e.stock.IncreaseStock(ctx, req("7")) // 5 -> 12, resets
	require.NoError(t, err)
	assert.Equal(t, 1, e.notes.count())

	_, err = e.stock.DecreaseStock(ctx, req("3")) // 12 -> 9
	require.NoError(t, err)
	require.Equal(t, 2, e.notes.count())

	last := e.notes.alerts[1]
	assert.Equal(t, "Green Tea", last.ProductName)
	assert.Equal(t, "9", last.Quantity.String())
	assert.Equal(t, "10", last.Threshold.String())
}

func TestConcurrentDecreases(t *testing.T) {
	db := testutil.NewFileDB(t, 8)
	e := newEnvOn(t, db, TxOptions{Timeout: 10 * time.Second, MaxAttempts: 50, Backoff: 2 * time.Millisecond})
	testutil.PutStock(t, e.db, e.f.Product.ID, e.f.Store.ID, "10")

	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = e.stock.DecreaseStock(context.Background(), StockRequest{
				ProductID: e.f.Product.ID, StoreID: e.f.Store.ID, Quantity: testutil.Dec("3"),
			})
		}(i)
	}
	close(start)
	wg.Wait()

	ok, insufficient := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 3, ok)
	assert.Equal(t, 5, insufficient)
	assert.Equal(t, "1", e.quantity(t, e.f.Product.ID, e.f.Store.ID))
}

func TestDecreaseFractionalStepsToZero(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	testutil.PutStock(t, e.db, e.f.Product.ID, e.f.Store.ID, "0.3")
	req := StockRequest{ProductID: e.f.Product.ID, StoreID: e.f.Store.ID, Quantity: testutil.Dec("0.1")}

	for _, want := range []string{"0.2", "0.1", "0"} {
		s, err := e.stock.DecreaseStock(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, want, s.Quantity.String())
	}

	_, err := e.stock.DecreaseStock(ctx, req)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	require.NoError(t, e.stock.RemoveStock(ctx, e.f.Product.ID, e.f.Store.ID))
}

func TestListByStore(t *testing.T) {
	e := newEnv(t)
	testutil.PutStock(t, e.db, e.f.Product.ID, e.f.Store.ID, "4")
	testutil.PutStock(t, e.db, e.f.Product2.ID, e.f.Store.ID, "40")

	res, err := e.stock.ListByStore(context.Background(), e.f.Store.ID, model.StockFilter{Brand: "paddy"}, model.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "40", res.Items[0].Quantity.String())
	assert.Equal(t, model.DefaultPageSize, res.Size)
}
