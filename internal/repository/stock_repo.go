package repository

import (
	"context"
	"strings"
	"time"

	"go-inventory-pos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRepository owns the stocks table. Mutations take the caller's transaction
// and report RowsAffected so the service can tell a missing row from a failed guard.
type StockRepository interface {
	Find(ctx context.Context, productID, storeID uuid.UUID) (*model.Stock, error)
	FindTx(tx *gorm.DB, productID, storeID uuid.UUID, lock string) (*model.Stock, error)
	Create(tx *gorm.DB, stock *model.Stock) error
	EnsureRow(tx *gorm.DB, productID, storeID uuid.UUID) error
	SetQuantity(tx *gorm.DB, productID, storeID uuid.UUID, qty decimal.Decimal) (int64, error)
	Increase(tx *gorm.DB, productID, storeID uuid.UUID, delta decimal.Decimal) (int64, error)
	DecreaseIfEnough(tx *gorm.DB, productID, storeID uuid.UUID, delta decimal.Decimal) (int64, error)
	DeleteIfEmpty(tx *gorm.DB, productID, storeID uuid.UUID) (int64, error)

	// Alert flag transitions; both are guarded so concurrent writers flip them once.
	MarkAlertSent(tx *gorm.DB, productID, storeID uuid.UUID, threshold decimal.Decimal) (bool, error)
	ClearAlert(tx *gorm.DB, productID, storeID uuid.UUID, threshold decimal.Decimal) (bool, error)

	ListByStore(ctx context.Context, storeID uuid.UUID, filter model.StockFilter, page model.Page) ([]model.StockItem, int64, error)
	Stats(ctx context.Context, storeID uuid.UUID, threshold decimal.Decimal) (*model.StockStats, error)
}

type stockRepo struct {
	db *gorm.DB
}

func NewStockRepo(db *gorm.DB) StockRepository {
	return &stockRepo{db}
}

func (r *stockRepo) Find(ctx context.Context, productID, storeID uuid.UUID) (*model.Stock, error) {
	return r.FindTx(r.db.WithContext(ctx), productID, storeID, LockNone)
}

func (r *stockRepo) FindTx(tx *gorm.DB, productID, storeID uuid.UUID, lock string) (*model.Stock, error) {
	var stock model.Stock
	err := withLock(tx, lock).
		Where("product_id = ? AND store_id = ?", productID, storeID).
		First(&stock).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepo) Create(tx *gorm.DB, stock *model.Stock) error {
	return tx.Create(stock).Error
}

func (r *stockRepo) EnsureRow(tx *gorm.DB, productID, storeID uuid.UUID) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Stock{ProductID: productID, StoreID: storeID, Quantity: decimal.Zero}).Error
}

func (r *stockRepo) SetQuantity(tx *gorm.DB, productID, storeID uuid.UUID, qty decimal.Decimal) (int64, error) {
	res := tx.Model(&model.Stock{}).
		Where("product_id = ? AND store_id = ?", productID, storeID).
		Updates(map[string]interface{}{
			"quantity":   qty,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (r *stockRepo) Increase(tx *gorm.DB, productID, storeID uuid.UUID, delta decimal.Decimal) (int64, error) {
	res := tx.Model(&model.Stock{}).
		Where("product_id = ? AND store_id = ?", productID, storeID).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("ROUND(quantity + ?, 3)", delta),
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

// DecreaseIfEnough subtracts delta in one statement guarded by quantity - delta >= 0.
// Arithmetic is rounded to the column scale so SQLite's REAL storage cannot
// leave a residue that fails the guard.
func (r *stockRepo) DecreaseIfEnough(tx *gorm.DB, productID, storeID uuid.UUID, delta decimal.Decimal) (int64, error) {
	res := tx.Model(&model.Stock{}).
		Where("product_id = ? AND store_id = ? AND ROUND(quantity - ?, 3) >= 0", productID, storeID, delta).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("ROUND(quantity - ?, 3)", delta),
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (r *stockRepo) DeleteIfEmpty(tx *gorm.DB, productID, storeID uuid.UUID) (int64, error) {
	res := tx.Where("product_id = ? AND store_id = ? AND quantity = 0", productID, storeID).
		Delete(&model.Stock{})
	return res.RowsAffected, res.Error
}

func (r *stockRepo) MarkAlertSent(tx *gorm.DB, productID, storeID uuid.UUID, threshold decimal.Decimal) (bool, error) {
	res := tx.Model(&model.Stock{}).
		Where("product_id = ? AND store_id = ? AND low_stock_alert_sent = ? AND quantity < ?",
			productID, storeID, false, threshold).
		Update("low_stock_alert_sent", true)
	return res.RowsAffected == 1, res.Error
}

func (r *stockRepo) ClearAlert(tx *gorm.DB, productID, storeID uuid.UUID, threshold decimal.Decimal) (bool, error) {
	res := tx.Model(&model.Stock{}).
		Where("product_id = ? AND store_id = ? AND low_stock_alert_sent = ? AND quantity >= ?",
			productID, storeID, true, threshold).
		Update("low_stock_alert_sent", false)
	return res.RowsAffected == 1, res.Error
}

func (r *stockRepo) ListByStore(ctx context.Context, storeID uuid.UUID, filter model.StockFilter, page model.Page) ([]model.StockItem, int64, error) {
	page = page.Normalize()

	q := r.db.WithContext(ctx).
		Table("stocks").
		Joins("JOIN products ON products.id = stocks.product_id").
		Where("stocks.store_id = ?", storeID)

	if filter.Name != "" {
		q = q.Where("LOWER(products.name) LIKE ?", "%"+strings.ToLower(filter.Name)+"%")
	}
	if filter.SKU != "" {
		q = q.Where("products.sku = ?", filter.SKU)
	}
	if filter.Barcode != "" {
		q = q.Where("products.barcode = ?", filter.Barcode)
	}
	if filter.Brand != "" {
		q = q.Where("LOWER(products.brand) = ?", strings.ToLower(filter.Brand))
	}
	if filter.MinPrice != nil {
		q = q.Where("products.price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("products.price <= ?", *filter.MaxPrice)
	}
	if filter.MinStock != nil {
		q = q.Where("stocks.quantity >= ?", *filter.MinStock)
	}
	if filter.MaxStock != nil {
		q = q.Where("stocks.quantity <= ?", *filter.MaxStock)
	}
	if len(filter.CategoryIDs) > 0 {
		q = q.Where("stocks.product_id IN (?)",
			r.db.Model(&model.ProductCategory{}).Select("product_id").Where("category_id IN ?", filter.CategoryIDs))
	}
	if len(filter.ProviderIDs) > 0 {
		q = q.Where("stocks.product_id IN (?)",
			r.db.Model(&model.ProductProvider{}).Select("product_id").Where("provider_id IN ?", filter.ProviderIDs))
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.StockItem
	err := q.Select(`stocks.product_id, stocks.store_id, stocks.quantity, stocks.low_stock_alert_sent,
			products.name, products.sku, products.barcode, products.brand, products.price`).
		Order("products.name ASC, stocks.product_id ASC").
		Limit(page.Size).
		Offset(page.Offset()).
		Scan(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Stats counts the stock rows of a store and values them at current catalog prices.
func (r *stockRepo) Stats(ctx context.Context, storeID uuid.UUID, threshold decimal.Decimal) (*model.StockStats, error) {
	var row struct {
		Products  int64
		LowStock  int64
		Units     decimal.Decimal
		Valuation decimal.Decimal
	}
	err := r.db.WithContext(ctx).Table("stocks").
		Select(`
			COUNT(*) AS products,
			COALESCE(SUM(CASE WHEN stocks.quantity < ? THEN 1 ELSE 0 END), 0) AS low_stock,
			COALESCE(SUM(stocks.quantity), 0) AS units,
			COALESCE(SUM(stocks.quantity * products.price), 0) AS valuation
		`, threshold).
		Joins("JOIN products ON products.id = stocks.product_id").
		Where("stocks.store_id = ?", storeID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &model.StockStats{
		StoreID:   storeID,
		Products:  row.Products,
		LowStock:  row.LowStock,
		Units:     row.Units.Round(model.QuantityScale),
		Valuation: row.Valuation.Round(model.MoneyScale),
		Threshold: threshold,
	}, nil
}
