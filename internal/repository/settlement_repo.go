package repository

import (
	"context"

	"go-inventory-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SettlementRepository stores the 1:1 Sale and Purchase rows attached to transactions.
type SettlementRepository interface {
	CreateSale(tx *gorm.DB, sale *model.Sale) error
	CreatePurchase(tx *gorm.DB, purchase *model.Purchase) error
	FindSale(ctx context.Context, transactionID uuid.UUID) (*model.Sale, error)
	FindPurchase(ctx context.Context, transactionID uuid.UUID) (*model.Purchase, error)
	FindSaleTx(tx *gorm.DB, transactionID uuid.UUID, lock string) (*model.Sale, error)
	FindPurchaseTx(tx *gorm.DB, transactionID uuid.UUID, lock string) (*model.Purchase, error)
	UpdateSaleClient(tx *gorm.DB, transactionID uuid.UUID, clientID *uuid.UUID, updatedBy string) error
	UpdatePurchaseProvider(tx *gorm.DB, transactionID uuid.UUID, providerID uuid.UUID, updatedBy string) error
	ListSales(ctx context.Context, filter model.TransactionFilter, page model.Page) ([]model.Sale, int64, error)
	ListPurchases(ctx context.Context, filter model.TransactionFilter, page model.Page) ([]model.Purchase, int64, error)
}

type settlementRepo struct {
	db *gorm.DB
}

func NewSettlementRepo(db *gorm.DB) SettlementRepository {
	return &settlementRepo{db}
}

func (r *settlementRepo) CreateSale(tx *gorm.DB, sale *model.Sale) error {
	return tx.Create(sale).Error
}

func (r *settlementRepo) CreatePurchase(tx *gorm.DB, purchase *model.Purchase) error {
	return tx.Create(purchase).Error
}

func (r *settlementRepo) FindSale(ctx context.Context, transactionID uuid.UUID) (*model.Sale, error) {
	return r.FindSaleTx(r.db.WithContext(ctx), transactionID, LockNone)
}

func (r *settlementRepo) FindPurchase(ctx context.Context, transactionID uuid.UUID) (*model.Purchase, error) {
	return r.FindPurchaseTx(r.db.WithContext(ctx), transactionID, LockNone)
}

func (r *settlementRepo) FindSaleTx(tx *gorm.DB, transactionID uuid.UUID, lock string) (*model.Sale, error) {
	var sale model.Sale
	if err := withLock(tx, lock).First(&sale, "transaction_id = ?", transactionID).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *settlementRepo) FindPurchaseTx(tx *gorm.DB, transactionID uuid.UUID, lock string) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := withLock(tx, lock).First(&purchase, "transaction_id = ?", transactionID).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *settlementRepo) UpdateSaleClient(tx *gorm.DB, transactionID uuid.UUID, clientID *uuid.UUID, updatedBy string) error {
	return tx.Model(&model.Sale{}).
		Where("transaction_id = ?", transactionID).
		Updates(map[string]interface{}{
			"client_id":  clientID,
			"updated_by": updatedBy,
		}).Error
}

func (r *settlementRepo) UpdatePurchaseProvider(tx *gorm.DB, transactionID uuid.UUID, providerID uuid.UUID, updatedBy string) error {
	return tx.Model(&model.Purchase{}).
		Where("transaction_id = ?", transactionID).
		Updates(map[string]interface{}{
			"provider_id": providerID,
			"updated_by":  updatedBy,
		}).Error
}

func (r *settlementRepo) ListSales(ctx context.Context, filter model.TransactionFilter, page model.Page) ([]model.Sale, int64, error) {
	var sales []model.Sale
	total, err := r.list(ctx, &model.Sale{}, "sales", filter, page, &sales)
	return sales, total, err
}

func (r *settlementRepo) ListPurchases(ctx context.Context, filter model.TransactionFilter, page model.Page) ([]model.Purchase, int64, error) {
	var purchases []model.Purchase
	total, err := r.list(ctx, &model.Purchase{}, "purchases", filter, page, &purchases)
	return purchases, total, err
}

func (r *settlementRepo) list(ctx context.Context, m interface{}, table string, filter model.TransactionFilter, page model.Page, dest interface{}) (int64, error) {
	page = page.Normalize()
	filter.Type = nil

	q := r.db.WithContext(ctx).Model(m).
		Joins("JOIN transactions ON transactions.id = " + table + ".transaction_id")
	q = ApplyTransactionFilter(q, "transactions", filter)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}
	err := q.Select(table + ".*").
		Order("transactions.date_time DESC, " + table + ".transaction_id ASC").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(dest).Error
	return total, err
}
