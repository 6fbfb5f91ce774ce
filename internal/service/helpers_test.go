package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/obs"
	"go-inventory-pos/internal/repository"
	"go-inventory-pos/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []model.LowStockAlert
}

func (n *recordingNotifier) NotifyLowStock(_ context.Context, a model.LowStockAlert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(event string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type testEnv struct {
	db       *gorm.DB
	f        *testutil.Fixture
	deps     Deps
	notes    *recordingNotifier
	events   *recordingPublisher
	stock    StockService
	sessions SessionService
	recorder TransactionService
	settle   SettlementService
	audit    AuditService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	return newEnvOn(t, testutil.NewDB(t), TxOptions{Timeout: 5 * time.Second, MaxAttempts: 3, Backoff: time.Millisecond})
}

func newEnvOn(t *testing.T, db *gorm.DB, opts TxOptions) *testEnv {
	t.Helper()
	f := testutil.Seed(t, db)
	logger := obs.Discard()

	e := &testEnv{db: db, f: f, notes: &recordingNotifier{}, events: &recordingPublisher{}}
	e.deps = Deps{
		Runner:            NewTxRunner(db, opts, logger),
		Catalog:           repository.NewCatalogRepo(db),
		Stocks:            repository.NewStockRepo(db),
		Transactions:      repository.NewTransactionRepo(db),
		Settlements:       repository.NewSettlementRepo(db),
		Sessions:          repository.NewSessionRepo(db),
		Revisions:         repository.NewRevisionRepo(db),
		Notifier:          e.notes,
		Events:            e.events,
		Logger:            logger,
		LowStockThreshold: testutil.Dec("10"),
	}
	e.stock = NewStockService(e.deps)
	e.sessions = NewSessionService(e.deps)
	e.recorder = NewTransactionService(e.deps, e.sessions)
	e.settle = NewSettlementService(e.deps, e.stock, e.recorder, e.sessions)
	e.audit = NewAuditService(e.deps)
	return e
}

func (e *testEnv) openSession(t *testing.T, opening string) *model.SessionPos {
	t.Helper()
	s, err := e.sessions.Open(context.Background(), OpenSessionRequest{
		PosID:         e.f.Pos.ID,
		EmployeeID:    e.f.Employee,
		OpeningAmount: testutil.Dec(opening),
		By:            "tester",
	})
	require.NoError(t, err)
	return s
}

func (e *testEnv) quantity(t *testing.T, productID, storeID uuid.UUID) string {
	t.Helper()
	var s model.Stock
	require.NoError(t, e.db.Where("product_id = ? AND store_id = ?", productID, storeID).First(&s).Error)
	return s.Quantity.Round(model.QuantityScale).String()
}

func (e *testEnv) txRequest(session *model.SessionPos, method model.PaymentMethod, lines ...LineRequest) TransactionRequest {
	return TransactionRequest{
		StoreID:       e.f.Store.ID,
		PosID:         &e.f.Pos.ID,
		SessionPosID:  session.ID,
		PaymentMethod: method,
		Description:   "test",
		Details:       lines,
		By:            "tester",
	}
}
