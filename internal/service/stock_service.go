package service

import (
	"context"
	"errors"
	"time"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockService is the per-store inventory ledger. Quantities never go negative.
type StockService interface {
	GetStock(ctx context.Context, productID, storeID uuid.UUID) (*model.Stock, error)
	AddStock(ctx context.Context, req StockRequest) (*model.Stock, error)
	UpdateStock(ctx context.Context, req StockRequest) (*model.Stock, error)
	IncreaseStock(ctx context.Context, req StockRequest) (*model.Stock, error)
	DecreaseStock(ctx context.Context, req StockRequest) (*model.Stock, error)
	RemoveStock(ctx context.Context, productID, storeID uuid.UUID) error
	TransferStock(ctx context.Context, req TransferRequest) (*TransferResult, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, filter model.StockFilter, page model.Page) (model.PageResult[model.StockItem], error)

	// Tx variants run inside the caller's transaction and return the alert to
	// publish after commit, if the mutation started a depletion episode.
	IncreaseStockTx(tx *gorm.DB, productID, storeID uuid.UUID, delta decimal.Decimal) (*model.LowStockAlert, error)
	DecreaseStockTx(tx *gorm.DB, productID, storeID uuid.UUID, delta decimal.Decimal) (*model.LowStockAlert, error)
}

type StockRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"uuid_required"`
	StoreID   uuid.UUID       `json:"store_id" validate:"uuid_required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gte=0"`
}

type TransferRequest struct {
	ProductID   uuid.UUID       `json:"product_id" validate:"uuid_required"`
	FromStoreID uuid.UUID       `json:"from_store_id" validate:"uuid_required"`
	ToStoreID   uuid.UUID       `json:"to_store_id" validate:"uuid_required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
}

type TransferResult struct {
	From model.Stock `json:"from"`
	To   model.Stock `json:"to"`
}

type stockService struct {
	Deps
}

func NewStockService(d Deps) StockService {
	return &stockService{d.withDefaults()}
}

func (s *stockService) GetStock(ctx context.Context, productID, storeID uuid.UUID) (*model.Stock, error) {
	stock, err := s.Stocks.Find(ctx, productID, storeID)
	if err != nil {
		return nil, storeErr("GetStock", "stock", stockKey{productID, storeID}, err)
	}
	return normalizeStock(stock), nil
}

func (s *stockService) AddStock(ctx context.Context, req StockRequest) (*model.Stock, error) {
	const op = "AddStock"
	if err := s.checkRequest(op, req, false); err != nil {
		return nil, err
	}
	key := stockKey{req.ProductID, req.StoreID}

	var stock *model.Stock
	var alert *model.LowStockAlert
	err := s.Runner.Run(ctx, op, func(tx *gorm.DB) error {
		if err := s.requireCatalog(tx, op, req.ProductID, req.StoreID); err != nil {
			return err
		}
		_, err := s.Stocks.FindTx(tx, req.ProductID, req.StoreID, repository.LockNone)
		if err == nil {
			return newErr(ErrConflict, op, "stock", key, errStockExists)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return storeErr(op, "stock", key, err)
		}
		row := &model.Stock{ProductID: req.ProductID, StoreID: req.StoreID, Quantity: req.Quantity}
		if err := s.Stocks.Create(tx, row); err != nil {
			return storeErr(op, "stock", key, err)
		}
		if alert, err = s.checkLevel(tx, op, req.ProductID, req.StoreID, true); err != nil {
			return err
		}
		stock, err = s.reload(tx, op, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, "added", stock, alert)
	return stock, nil
}

func (s *stockService) UpdateStock(ctx context.Context, req StockRequest) (*model.Stock, error) {
	const op = "UpdateStock"
	if err := s.checkRequest(op, req, false); err != nil {
		return nil, err
	}
	key := stockKey{req.ProductID, req.StoreID}

	var stock *model.Stock
	var alert *model.LowStockAlert
	err := s.Runner.Run(ctx, op, func(tx *gorm.DB) error {
		n, err := s.Stocks.SetQuantity(tx, req.ProductID, req.StoreID, req.Quantity)
		if err != nil {
			return storeErr(op, "stock", key, err)
		}
		if n == 0 {
			return newErr(ErrNotFound, op, "stock", key, nil)
		}
		if alert, err = s.checkLevel(tx, op, req.ProductID, req.StoreID, true); err != nil {
			return err
		}
		stock, err = s.reload(tx, op, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, "updated", stock, alert)
	return stock, nil
}

func (s *stockService) IncreaseStock(ctx context.Context, req StockRequest) (*model.Stock, error) {
	const op = "IncreaseStock"
	if err := s.checkRequest(op, req, true); err != nil {
		return nil, err
	}
	key := stockKey{req.ProductID, req.StoreID}

	var stock *model.Stock
	var alert *model.LowStockAlert
	err := s.Runner.Run(ctx, op, func(tx *gorm.DB) error {
		var err error
		if alert, err = s.IncreaseStockTx(tx, req.ProductID, req.StoreID, req.Quantity); err != nil {
			return err
		}
		stock, err = s.reload(tx, op, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, "increased", stock, alert)
	return stock, nil
}

func (s *stockService) DecreaseStock(ctx context.Context, req StockRequest) (*model.Stock, error) {
	const op = "DecreaseStock"
	if err := s.checkRequest(op, req, true); err != nil {
		return nil, err
	}
	key := stockKey{req.ProductID, req.StoreID}

	var stock *model.Stock
	var alert *model.LowStockAlert
	err := s.Runner.Run(ctx, op, func(tx *gorm.DB) error {
		var err error
		if alert, err = s.DecreaseStockTx(tx, req.ProductID, req.StoreID, req.Quantity); err != nil {
			return err
		}
		stock, err = s.reload(tx, op, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, "decreased", stock, alert)
	return stock, nil
}

func (s *stockService) RemoveStock(ctx context.Context, productID, storeID uuid.UUID) error {
	const op = "RemoveStock"
	key := stockKey{productID, storeID}
	err := s.Runner.Run(ctx, op, func(tx *gorm.DB) error {
		n, err := s.Stocks.DeleteIfEmpty(tx, productID, storeID)
		if err != nil {
			return storeErr(op, "stock", key, err)
		}
		if n == 1 {
			return nil
		}
		if _, err := s.Stocks.FindTx(tx, productID, storeID, repository.LockNone); err != nil {
			return storeErr(op, "stock", key, err)
		}
		return newErr(ErrConflict, op, "stock", key, errQuantityNotZero)
	})
	if err != nil {
		return err
	}
	s.Logger.Info("stock removed", "product_id", productID, "store_id", storeID)
	s.sink().publish(EventStockUpdate, map[string]interface{}{
		"action":     "removed",
		"product_id": productID,
		"store_id":   storeID,
	})
	return nil
}

func (s *stockService) TransferStock(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	const op = "TransferStock"
	if err := validate(op, req); err != nil {
		return nil, err
	}
	if err := checkScale(op, "quantity", req.Quantity, model.QuantityScale); err != nil {
		return nil, err
	}
	if req.FromStoreID == req.ToStoreID {
		return nil, invalid(op, "source and destination store are the same")
	}

	var res TransferResult
	var alerts []model.LowStockAlert
	err := s.Runner.Run(ctx, op, func(tx *gorm.DB) error {
		alerts = alerts[:0]
		out, err := s.DecreaseStockTx(tx, req.ProductID, req.FromStoreID, req.Quantity)
		if err != nil {
			return err
		}
		in, err := s.IncreaseStockTx(tx, req.ProductID, req.ToStoreID, req.Quantity)
		if err != nil {
			return err
		}
		for _, a := range []*model.LowStockAlert{out, in} {
			if a != nil {
				alerts = append(alerts, *a)
			}
		}
		from, err := s.reload(tx, op, stockKey{req.ProductID, req.FromStoreID})
		if err != nil {
			return err
		}
		to, err := s.reload(tx, op, stockKey{req.ProductID, req.ToStoreID})
		if err != nil {
			return err
		}
		res = TransferResult{From: *from, To: *to}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("stock transferred",
		"product_id", req.ProductID,
		"from_store_id", req.FromStoreID,
		"to_store_id", req.ToStoreID,
		"quantity", req.Quantity.String(),
	)
	sink := s.sink()
	sink.deliver(ctx, alerts)
	sink.publish(EventStockUpdate, map[string]interface{}{
		"action":   "transferred",
		"transfer": res,
	})
	return &res, nil
}

func (s *stockService) ListByStore(ctx context.Context, storeID uuid.UUID, filter model.StockFilter, page model.Page) (model.PageResult[model.StockItem], error) {
	page = page.Normalize()
	items, total, err := s.Stocks.ListByStore(ctx, storeID, filter, page)
	if err != nil {
		return model.PageResult[model.StockItem]{}, storeErr("ListByStore", "store", storeID, err)
	}
	for i := range items {
		items[i].Quantity = items[i].Quantity.Round(model.QuantityScale)
	}
	return model.NewPageResult(items, total, page), nil
}

func (s *stockService) IncreaseStockTx(tx *gorm.DB, productID, storeID uuid.UUID, delta decimal.Decimal) (*model.LowStockAlert, error) {
	const op = "IncreaseStock"
	if !delta.IsPositive() {
		return nil, invalid(op, "quantity must be positive, got %s", delta)
	}
	key := stockKey{productID, storeID}

	n, err := s.Stocks.Increase(tx, productID, storeID, delta)
	if err != nil {
		return nil, storeErr(op, "stock", key, err)
	}
	if n == 0 {
		// First stocking of this product at this store.
		if err := s.requireCatalog(tx, op, productID, storeID); err != nil {
			return nil, err
		}
		if err := s.Stocks.EnsureRow(tx, productID, storeID); err != nil {
			return nil, storeErr(op, "stock", key, err)
		}
		if n, err = s.Stocks.Increase(tx, productID, storeID, delta); err != nil {
			return nil, storeErr(op, "stock", key, err)
		}
		if n == 0 {
			return nil, newErr(ErrNotFound, op, "stock", key, nil)
		}
	}
	return s.checkLevel(tx, op, productID, storeID, true)
}

func (s *stockService) DecreaseStockTx(tx *gorm.DB, productID, storeID uuid.UUID, delta decimal.Decimal) (*model.LowStockAlert, error) {
	const op = "DecreaseStock"
	if !delta.IsPositive() {
		return nil, invalid(op, "quantity must be positive, got %s", delta)
	}
	key := stockKey{productID, storeID}

	n, err := s.Stocks.DecreaseIfEnough(tx, productID, storeID, delta)
	if err != nil {
		return nil, storeErr(op, "stock", key, err)
	}
	if n == 0 {
		if _, err := s.Stocks.FindTx(tx, productID, storeID, repository.LockNone); err != nil {
			return nil, storeErr(op, "stock", key, err)
		}
		return nil, newErr(ErrInsufficientStock, op, "stock", key, nil)
	}
	return s.checkLevel(tx, op, productID, storeID, false)
}

// checkLevel flips the alert flag at most once per depletion episode.
// reset clears the flag first when the quantity is back at or above the threshold.
func (s *stockService) checkLevel(tx *gorm.DB, op string, productID, storeID uuid.UUID, reset bool) (*model.LowStockAlert, error) {
	key := stockKey{productID, storeID}
	threshold := s.LowStockThreshold
	if reset {
		if _, err := s.Stocks.ClearAlert(tx, productID, storeID, threshold); err != nil {
			return nil, storeErr(op, "stock", key, err)
		}
	}
	flipped, err := s.Stocks.MarkAlertSent(tx, productID, storeID, threshold)
	if err != nil {
		return nil, storeErr(op, "stock", key, err)
	}
	if !flipped {
		return nil, nil
	}

	stock, err := s.reload(tx, op, key)
	if err != nil {
		return nil, err
	}
	product, err := s.Catalog.FindProduct(tx, productID)
	if err != nil {
		return nil, storeErr(op, "product", productID, err)
	}
	return &model.LowStockAlert{
		ProductID:   productID,
		ProductName: product.Name,
		StoreID:     storeID,
		Quantity:    stock.Quantity,
		Threshold:   threshold,
		At:          time.Now().UTC(),
	}, nil
}

func (s *stockService) checkRequest(op string, req StockRequest, positive bool) error {
	if err := validate(op, req); err != nil {
		return err
	}
	if positive && !req.Quantity.IsPositive() {
		return invalid(op, "quantity must be positive, got %s", req.Quantity)
	}
	return checkScale(op, "quantity", req.Quantity, model.QuantityScale)
}

func (s *stockService) requireCatalog(tx *gorm.DB, op string, productID, storeID uuid.UUID) error {
	if _, err := s.Catalog.FindProduct(tx, productID); err != nil {
		return storeErr(op, "product", productID, err)
	}
	if _, err := s.Catalog.FindStore(tx, storeID); err != nil {
		return storeErr(op, "store", storeID, err)
	}
	return nil
}

func (s *stockService) reload(tx *gorm.DB, op string, key stockKey) (*model.Stock, error) {
	stock, err := s.Stocks.FindTx(tx, key.productID, key.storeID, repository.LockNone)
	if err != nil {
		return nil, storeErr(op, "stock", key, err)
	}
	return normalizeStock(stock), nil
}

func (s *stockService) afterCommit(ctx context.Context, action string, stock *model.Stock, alert *model.LowStockAlert) {
	s.Logger.Info("stock "+action,
		"product_id", stock.ProductID,
		"store_id", stock.StoreID,
		"quantity", stock.Quantity.String(),
	)
	sink := s.sink()
	if alert != nil {
		sink.deliver(ctx, []model.LowStockAlert{*alert})
	}
	sink.publish(EventStockUpdate, map[string]interface{}{
		"action": action,
		"stock":  stock,
	})
}

func normalizeStock(s *model.Stock) *model.Stock {
	s.Quantity = s.Quantity.Round(model.QuantityScale)
	return s
}
