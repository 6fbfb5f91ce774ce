package repository

import (
	"context"
	"time"

	"go-inventory-pos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(tx *gorm.DB, transaction *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindTx(tx *gorm.DB, id uuid.UUID, lock string) (*model.Transaction, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Transaction, error)
	FindAll(ctx context.Context, filter model.TransactionFilter, page model.Page) ([]model.Transaction, int64, error)
	Update(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	GetCashSummary(tx *gorm.DB, sessionID uuid.UUID) (*CashSummary, error)
	ListTotals(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]TotalRow, error)
}

// CashSummary aggregates the cash movements of one session.
type CashSummary struct {
	CashSales     decimal.Decimal
	CashPurchases decimal.Decimal
	Count         int64
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

// Create inserts the header and then its lines with the generated transaction id.
func (r *transactionRepo) Create(tx *gorm.DB, transaction *model.Transaction) error {
	if err := tx.Create(transaction).Error; err != nil {
		return err
	}
	if len(transaction.Details) == 0 {
		return nil
	}
	for i := range transaction.Details {
		transaction.Details[i].TransactionID = transaction.ID
		transaction.Details[i].CreatedBy = transaction.CreatedBy
	}
	return tx.Create(&transaction.Details).Error
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	return r.FindTx(r.db.WithContext(ctx), id, LockNone)
}

func (r *transactionRepo) FindTx(tx *gorm.DB, id uuid.UUID, lock string) (*model.Transaction, error) {
	var transaction model.Transaction
	if err := withLock(tx, lock).First(&transaction, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("transaction_id = ?", id).Order("created_at ASC, id ASC").
		Find(&transaction.Details).Error; err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Transaction, error) {
	out := make(map[uuid.UUID]model.Transaction, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	db := r.db.WithContext(ctx)
	var transactions []model.Transaction
	if err := db.Where("id IN ?", ids).Find(&transactions).Error; err != nil {
		return nil, err
	}
	if err := r.attachDetails(db, transactions); err != nil {
		return nil, err
	}
	for _, t := range transactions {
		out[t.ID] = t
	}
	return out, nil
}

func (r *transactionRepo) FindAll(ctx context.Context, filter model.TransactionFilter, page model.Page) ([]model.Transaction, int64, error) {
	page = page.Normalize()
	db := r.db.WithContext(ctx)

	q := ApplyTransactionFilter(db.Model(&model.Transaction{}), "transactions", filter)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var transactions []model.Transaction
	err := q.Order("date_time DESC, id ASC").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&transactions).Error
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachDetails(db, transactions); err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

func (r *transactionRepo) attachDetails(db *gorm.DB, transactions []model.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(transactions))
	for i, t := range transactions {
		ids[i] = t.ID
	}
	var details []model.DetailTransaction
	if err := db.Where("transaction_id IN ?", ids).Order("created_at ASC, id ASC").Find(&details).Error; err != nil {
		return err
	}
	byTx := make(map[uuid.UUID][]model.DetailTransaction, len(transactions))
	for _, d := range details {
		byTx[d.TransactionID] = append(byTx[d.TransactionID], d)
	}
	for i := range transactions {
		transactions[i].Details = byTx[transactions[i].ID]
	}
	return nil
}

func (r *transactionRepo) Update(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return tx.Model(&model.Transaction{}).Where("id = ?", id).Updates(fields).Error
}

// GetCashSummary sums the CASH sale and purchase totals recorded against a session.
func (r *transactionRepo) GetCashSummary(tx *gorm.DB, sessionID uuid.UUID) (*CashSummary, error) {
	var row struct {
		CashSales     decimal.Decimal
		CashPurchases decimal.Decimal
		Count         int64
	}
	err := tx.Model(&model.Transaction{}).
		Select(`
			COALESCE(SUM(CASE WHEN type = ? AND payment_method = ? THEN total ELSE 0 END), 0) AS cash_sales,
			COALESCE(SUM(CASE WHEN type = ? AND payment_method = ? THEN total ELSE 0 END), 0) AS cash_purchases,
			COUNT(*) AS count
		`, model.TxSale, model.PaymentCash, model.TxPurchase, model.PaymentCash).
		Where("session_pos_id = ?", sessionID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &CashSummary{
		CashSales:     row.CashSales.Round(model.MoneyScale),
		CashPurchases: row.CashPurchases.Round(model.MoneyScale),
		Count:         row.Count,
	}, nil
}

// TotalRow is the part of a transaction the movement report aggregates.
type TotalRow struct {
	DateTime time.Time
	Type     model.TransactionType
	Total    decimal.Decimal
}

// ListTotals returns the SALE and PURCHASE totals of a store in [from, to), oldest first.
func (r *transactionRepo) ListTotals(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]TotalRow, error) {
	var rows []TotalRow
	err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Select("date_time, type, total").
		Where("store_id = ? AND type IN ? AND date_time >= ? AND date_time < ?",
			storeID, []model.TransactionType{model.TxSale, model.TxPurchase}, from, to).
		Order("date_time ASC").
		Scan(&rows).Error
	return rows, err
}

// ApplyTransactionFilter adds the filter predicates against the given transactions table alias.
func ApplyTransactionFilter(q *gorm.DB, table string, filter model.TransactionFilter) *gorm.DB {
	col := func(name string) string { return table + "." + name }
	if filter.StoreID != nil {
		q = q.Where(col("store_id")+" = ?", *filter.StoreID)
	}
	if filter.SessionPosID != nil {
		q = q.Where(col("session_pos_id")+" = ?", *filter.SessionPosID)
	}
	if filter.PaymentMethod != nil {
		q = q.Where(col("payment_method")+" = ?", *filter.PaymentMethod)
	}
	if filter.Type != nil {
		q = q.Where(col("type")+" = ?", *filter.Type)
	}
	if filter.From != nil {
		q = q.Where(col("date_time")+" >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where(col("date_time")+" <= ?", *filter.To)
	}
	return q
}
