package service

import (
	"context"
	"errors"
	"testing"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceLineRounding(t *testing.T) {
	l := priceLine(testutil.Dec("0.333"), testutil.Dec("1.99"))
	assert.Equal(t, "0.66", l.Subtotal.String()) // 0.66267

	l = priceLine(testutil.Dec("0.5"), testutil.Dec("0.05"))
	assert.Equal(t, "0.03", l.Subtotal.String()) // 0.025 rounds away from zero
}

func TestCreateTransactionTotals(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.openSession(t, "0")

	created, err := e.recorder.CreateTransaction(ctx, e.txRequest(s, model.PaymentDigital,
		LineRequest{ProductID: e.f.Product.ID, Quantity: testutil.Dec("3")},
		LineRequest{ProductID: e.f.Product2.ID, Quantity: testutil.Dec("0.333")},
		LineRequest{ProductID: e.f.Product2.ID, Quantity: testutil.Dec("0")},
	))
	require.NoError(t, err)
	assert.Equal(t, model.TxOther, created.Type)
	require.Len(t, created.Details, 3)

	sum := decimal.Zero
	for _, d := range created.Details {
		sum = sum.Add(d.Subtotal)
	}
	assert.True(t, created.Total.Equal(sum))
	assert.Equal(t, "8.16", created.Total.String()) // 7.50 + 0.66 + 0

	got, err := e.recorder.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Details, 3)
	assert.True(t, got.Total.Equal(created.Total))

	revs, err := e.audit.ListRevisions(ctx, model.EntityTransaction, created.ID)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, model.RevisionAdd, revs[0].Type)

	var n int64
	require.NoError(t, e.db.Model(&model.Stock{}).Count(&n).Error)
	assert.Zero(t, n, "generic transactions have no stock effect")
}

func TestCreateTransactionRejects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.openSession(t, "0")
	line := LineRequest{ProductID: e.f.Product.ID, Quantity: testutil.Dec("1")}

	_, err := e.recorder.CreateTransaction(ctx, e.txRequest(s, model.PaymentCash))
	assert.True(t, errors.Is(err, ErrInvalidInput), "empty details")

	_, err = e.recorder.CreateTransaction(ctx, e.txRequest(s, model.PaymentMethod("BARTER"), line))
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = e.recorder.CreateTransaction(ctx, e.txRequest(s, model.PaymentCash,
		LineRequest{ProductID: e.f.Product.ID, Quantity: testutil.Dec("-1")}))
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = e.recorder.CreateTransaction(ctx, e.txRequest(s, model.PaymentCash,
		LineRequest{ProductID: uuid.New(), Quantity: testutil.Dec("1")}))
	assert.True(t, IsNotFound(err))

	require.NoError(t, e.db.Model(&model.Product{}).Where("id = ?", e.f.Product2.ID).Update("disabled", true).Error)
	_, err = e.recorder.CreateTransaction(ctx, e.txRequest(s, model.PaymentCash,
		LineRequest{ProductID: e.f.Product2.ID, Quantity: testutil.Dec("1")}))
	assert.True(t, errors.Is(err, ErrInvalidInput))

	missing := *s
	missing.ID = uuid.New()
	_, err = e.recorder.CreateTransaction(ctx, e.txRequest(&missing, model.PaymentCash, line))
	assert.True(t, IsNotFound(err))

	_, err = e.sessions.Close(ctx, CloseSessionRequest{SessionID: s.ID, CloseAmount: decimal.Zero})
	require.NoError(t, err)
	_, err = e.recorder.CreateTransaction(ctx, e.txRequest(s, model.PaymentCash, line))
	assert.True(t, errors.Is(err, ErrSessionClosed))

	var n int64
	require.NoError(t, e.db.Model(&model.Transaction{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestFindAllFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.openSession(t, "0")
	line := LineRequest{ProductID: e.f.Product.ID, Quantity: testutil.Dec("1")}

	for _, m := range []model.PaymentMethod{model.PaymentCash, model.PaymentCredit, model.PaymentCash} {
		_, err := e.recorder.CreateTransaction(ctx, e.txRequest(s, m, line))
		require.NoError(t, err)
	}

	cash := model.PaymentCash
	page, err := e.recorder.FindAll(ctx, model.TransactionFilter{PaymentMethod: &cash}, model.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	for _, tx := range page.Items {
		assert.Len(t, tx.Details, 1)
	}

	other := uuid.New()
	page, err = e.recorder.FindAll(ctx, model.TransactionFilter{StoreID: &other}, model.Page{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.NotNil(t, page.Items)
}

func TestUpdateTransactionAppendsRevision(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	testutil.PutStock(t, e.db, e.f.Product.ID, e.f.Store.ID, "10")
	s := e.openSession(t, "100")

	res, err := e.settle.Sale(ctx, SaleRequest{TransactionRequest: e.txRequest(s, model.PaymentCash,
		LineRequest{ProductID: e.f.Product.ID, Quantity: testutil.Dec("2")})})
	require.NoError(t, err)
	id := res.Transaction.ID

	desc := "corrected"
	card := model.PaymentCredit
	updated, err := e.recorder.UpdateTransaction(ctx, id, UpdateTransactionRequest{Description: &desc, PaymentMethod: &card, By: "manager"})
	require.NoError(t, err)
	assert.Equal(t, "corrected", updated.Description)
	assert.Equal(t, model.PaymentCredit, updated.PaymentMethod)
	assert.Equal(t, model.TxSale, updated.Type)

	// the 5.00 cash sale left the drawer
	var pos model.Pos
	require.NoError(t, e.db.First(&pos, "id = ?", e.f.Pos.ID).Error)
	assert.Equal(t, "100", pos.CashAmount.String())

	revs, err := e.audit.ListRevisions(ctx, model.EntityTransaction, id)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, model.RevisionMod, revs[1].Type)
	assert.Equal(t, "manager", revs[1].CreatedBy)

	_, err = e.recorder.UpdateTransaction(ctx, id, UpdateTransactionRequest{})
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = e.recorder.UpdateTransaction(ctx, uuid.New(), UpdateTransactionRequest{Description: &desc})
	assert.True(t, IsNotFound(err))
}

func TestCashShift(t *testing.T) {
	sale := &model.Transaction{Type: model.TxSale, PaymentMethod: model.PaymentCash, Total: testutil.Dec("5")}
	assert.Equal(t, "-5", cashShift(sale, model.PaymentDebit).String())
	assert.True(t, cashShift(sale, model.PaymentCash).IsZero())

	purchase := &model.Transaction{Type: model.TxPurchase, PaymentMethod: model.PaymentDebit, Total: testutil.Dec("5")}
	assert.Equal(t, "-5", cashShift(purchase, model.PaymentCash).String())

	other := &model.Transaction{Type: model.TxOther, PaymentMethod: model.PaymentCash, Total: testutil.Dec("5")}
	assert.True(t, cashShift(other, model.PaymentDebit).IsZero())
}
