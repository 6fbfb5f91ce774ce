package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"go-inventory-pos/internal/app"
	"go-inventory-pos/internal/config"
	"go-inventory-pos/internal/handler"
	"go-inventory-pos/internal/middleware"
	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/obs"
	"go-inventory-pos/internal/service"
	"go-inventory-pos/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type server struct {
	app *fiber.App
	db  *gorm.DB
	f   *testutil.Fixture
}

func newServer(t *testing.T) *server {
	t.Helper()
	db := testutil.NewDB(t)
	f := testutil.Seed(t, db)
	core := app.NewCore(db, app.Options{
		Config:   config.Config{TxMaxAttempts: 3, LowStockThreshold: testutil.Dec("10")},
		Logger:   obs.Discard(),
		Notifier: service.LogNotifier{Logger: obs.Discard()},
	})

	a := fiber.New()
	handler.RegisterRoutes(a, handler.Services{
		Stock:        core.Stock,
		Sessions:     core.Sessions,
		Transactions: core.Transactions,
		Settlements:  core.Settlements,
		Audit:        core.Audit,
		Reports:      core.Reports,
	}, nil)
	return &server{app: a, db: db, f: f}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Code  string          `json:"code"`
}

func (s *server) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.ActorHeader, "cashier-1")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (s *server) stockPath(productID uuid.UUID) string {
	return "/api/v1/stores/" + s.f.Store.ID.String() + "/products/" + productID.String() + "/stock"
}

func (s *server) openSession(t *testing.T, opening string) model.SessionPos {
	t.Helper()
	status, env := s.do(t, "POST", "/api/v1/pos/"+s.f.Pos.ID.String()+"/sessions", fiber.Map{
		"employee_id":    s.f.Employee,
		"opening_amount": opening,
	})
	require.Equal(t, 201, status, env.Error)
	var session model.SessionPos
	require.NoError(t, json.Unmarshal(env.Data, &session))
	return session
}

func TestStockEndpoints(t *testing.T) {
	s := newServer(t)
	path := s.stockPath(s.f.Product.ID)

	status, env := s.do(t, "POST", path, fiber.Map{"quantity": "25.5"})
	require.Equal(t, 201, status, env.Error)

	status, env = s.do(t, "GET", path, nil)
	require.Equal(t, 200, status)
	var stock model.Stock
	require.NoError(t, json.Unmarshal(env.Data, &stock))
	assert.True(t, stock.Quantity.Equal(testutil.Dec("25.5")))

	status, env = s.do(t, "POST", path+"/decrease", fiber.Map{"quantity": "30"})
	assert.Equal(t, 422, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", env.Code)

	status, _ = s.do(t, "POST", path+"/increase", fiber.Map{"quantity": "0.5"})
	require.Equal(t, 200, status)

	status, env = s.do(t, "PUT", path, fiber.Map{"quantity": "1.0001"})
	assert.Equal(t, 400, status)
	assert.Equal(t, "INVALID_INPUT", env.Code)

	status, env = s.do(t, "DELETE", path, nil)
	assert.Equal(t, 409, status, env.Error)

	status, _ = s.do(t, "PUT", path, fiber.Map{"quantity": "0"})
	require.Equal(t, 200, status)
	status, _ = s.do(t, "DELETE", path, nil)
	assert.Equal(t, 204, status)

	status, env = s.do(t, "GET", path, nil)
	assert.Equal(t, 404, status)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestStockBadParams(t *testing.T) {
	s := newServer(t)

	status, env := s.do(t, "GET", "/api/v1/stores/not-a-uuid/products/"+s.f.Product.ID.String()+"/stock", nil)
	assert.Equal(t, 400, status)
	assert.Equal(t, "invalid storeId", env.Error)

	status, _ = s.do(t, "GET", "/api/v1/stores/"+s.f.Store.ID.String()+"/stocks?min_price=abc", nil)
	assert.Equal(t, 400, status)
}

func TestTransferAndList(t *testing.T) {
	s := newServer(t)
	testutil.PutStock(t, s.db, s.f.Product.ID, s.f.Store.ID, "40")
	testutil.PutStock(t, s.db, s.f.Product2.ID, s.f.Store.ID, "3")

	status, env := s.do(t, "POST", "/api/v1/stores/"+s.f.Store.ID.String()+"/products/"+s.f.Product.ID.String()+"/transfer",
		fiber.Map{"to_store_id": s.f.Store2.ID, "quantity": "15"})
	require.Equal(t, 200, status, env.Error)
	var res service.TransferResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.From.Quantity.Equal(testutil.Dec("25")))
	assert.True(t, res.To.Quantity.Equal(testutil.Dec("15")))

	req := httptest.NewRequest("GET", "/api/v1/stores/"+s.f.Store.ID.String()+"/stocks?max_stock=10", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	var page model.PageResult[model.StockItem]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Rice 1kg", page.Items[0].Name)
	assert.EqualValues(t, 1, page.Total)
}

func TestSaleFlow(t *testing.T) {
	s := newServer(t)
	testutil.PutStock(t, s.db, s.f.Product.ID, s.f.Store.ID, "20")
	session := s.openSession(t, "100")

	base := "/api/v1/stores/" + s.f.Store.ID.String() + "/pos/" + s.f.Pos.ID.String()
	status, env := s.do(t, "POST", base+"/sales", fiber.Map{
		"session_pos_id": session.ID,
		"payment_method": "CASH",
		"client_id":      s.f.Client.ID,
		"details":        []fiber.Map{{"product_id": s.f.Product.ID, "quantity": "4"}},
	})
	require.Equal(t, 201, status, env.Error)
	var res service.SettlementResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Transaction.Total.Equal(testutil.Dec("10")))
	assert.Equal(t, model.TxSale, res.Transaction.Type)
	require.NotNil(t, res.Sale)

	txID := res.Transaction.ID.String()
	status, env = s.do(t, "GET", "/api/v1/sales/"+txID, nil)
	require.Equal(t, 200, status)

	status, env = s.do(t, "PATCH", "/api/v1/transactions/"+txID, fiber.Map{"description": "corrected"})
	require.Equal(t, 200, status, env.Error)
	var updated model.Transaction
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "corrected", updated.Description)

	status, env = s.do(t, "GET", "/api/v1/audits/transaction/"+txID, nil)
	require.Equal(t, 200, status)
	var revs []model.Revision
	require.NoError(t, json.Unmarshal(env.Data, &revs))
	require.Len(t, revs, 2)
	assert.Equal(t, model.RevisionAdd, revs[0].Type)
	assert.Equal(t, "cashier-1", revs[1].CreatedBy)

	status, env = s.do(t, "POST", "/api/v1/sessions/"+session.ID.String()+"/close", fiber.Map{"close_amount": "110"})
	require.Equal(t, 200, status, env.Error)
	var closed model.SessionPos
	require.NoError(t, json.Unmarshal(env.Data, &closed))
	require.True(t, closed.ExpectedAmount.Valid)
	assert.True(t, closed.ExpectedAmount.Decimal.Equal(testutil.Dec("110")))
	assert.True(t, closed.CashDifference.Decimal.IsZero())

	status, env = s.do(t, "POST", "/api/v1/sessions/"+session.ID.String()+"/close", fiber.Map{"close_amount": "110"})
	assert.Equal(t, 409, status)
	assert.Equal(t, "ALREADY_CLOSED", env.Code)

	status, env = s.do(t, "POST", base+"/sales", fiber.Map{
		"session_pos_id": session.ID,
		"payment_method": "CASH",
		"details":        []fiber.Map{{"product_id": s.f.Product.ID, "quantity": "1"}},
	})
	assert.Equal(t, 409, status)
	assert.Equal(t, "SESSION_CLOSED", env.Code)
}

func TestPurchaseAndReassign(t *testing.T) {
	s := newServer(t)
	session := s.openSession(t, "50")
	base := "/api/v1/stores/" + s.f.Store.ID.String() + "/pos/" + s.f.Pos.ID.String()

	status, env := s.do(t, "POST", base+"/purchases", fiber.Map{
		"session_pos_id": session.ID,
		"payment_method": "DEBIT",
		"provider_id":    s.f.Provider.ID,
		"details":        []fiber.Map{{"product_id": s.f.Product2.ID, "quantity": "12"}},
	})
	require.Equal(t, 201, status, env.Error)
	var res service.SettlementResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotNil(t, res.Purchase)

	status, env = s.do(t, "PUT", "/api/v1/purchases/"+res.Transaction.ID.String()+"/provider", fiber.Map{"provider_id": uuid.New()})
	assert.Equal(t, 404, status, env.Error)

	status, _ = s.do(t, "GET", "/api/v1/sales/"+res.Transaction.ID.String(), nil)
	assert.Equal(t, 404, status)

	status, env = s.do(t, "GET", "/api/v1/transactions?type=PURCHASE&store_id="+s.f.Store.ID.String(), nil)
	require.Equal(t, 200, status, env.Error)
}

func TestSessionSummaryAndCurrent(t *testing.T) {
	s := newServer(t)
	session := s.openSession(t, "20.00")

	status, env := s.do(t, "GET", "/api/v1/pos/"+s.f.Pos.ID.String()+"/sessions/current", nil)
	require.Equal(t, 200, status)
	var cur model.SessionPos
	require.NoError(t, json.Unmarshal(env.Data, &cur))
	assert.Equal(t, session.ID, cur.ID)

	status, env = s.do(t, "GET", "/api/v1/sessions/"+session.ID.String()+"/summary", nil)
	require.Equal(t, 200, status)
	var sum model.SessionSummary
	require.NoError(t, json.Unmarshal(env.Data, &sum))
	assert.True(t, sum.Open)
	assert.True(t, sum.ExpectedAmount.Equal(decimal.NewFromInt(20)))

	status, env = s.do(t, "POST", "/api/v1/pos/"+s.f.Pos.ID.String()+"/sessions", fiber.Map{
		"employee_id": s.f.Employee, "opening_amount": "1",
	})
	assert.Equal(t, 409, status)
	assert.Equal(t, "CONFLICT", env.Code)
}

func TestReports(t *testing.T) {
	s := newServer(t)
	testutil.PutStock(t, s.db, s.f.Product.ID, s.f.Store.ID, "4")
	store := "/api/v1/stores/" + s.f.Store.ID.String()

	status, env := s.do(t, "GET", store+"/stats", nil)
	require.Equal(t, 200, status, env.Error)
	var stats model.StockStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.EqualValues(t, 1, stats.LowStock)
	assert.Equal(t, "10", stats.Valuation.String())

	status, env = s.do(t, "GET", store+"/movement?days=5", nil)
	require.Equal(t, 200, status, env.Error)
	var days []model.MovementDay
	require.NoError(t, json.Unmarshal(env.Data, &days))
	assert.Len(t, days, 5)

	status, env = s.do(t, "GET", store+"/movement?days=365", nil)
	assert.Equal(t, 400, status)
	assert.Equal(t, "INVALID_INPUT", env.Code)

	status, _ = s.do(t, "GET", "/api/v1/stores/"+uuid.NewString()+"/stats", nil)
	assert.Equal(t, 404, status)
}

func TestAuditListRejectsUnknownEntity(t *testing.T) {
	s := newServer(t)
	status, env := s.do(t, "GET", "/api/v1/audits/widget", nil)
	assert.Equal(t, 400, status)
	assert.Equal(t, "INVALID_INPUT", env.Code)

	status, _ = s.do(t, "GET", "/api/v1/audits/sale?from=yesterday", nil)
	assert.Equal(t, 400, status)
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	a := fiber.New()
	handler.RegisterRoutes(a, handler.Services{}, nil)
	resp, err := a.Test(httptest.NewRequest("GET", "/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}
