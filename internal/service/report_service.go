package service

import (
	"context"
	"time"

	"go-inventory-pos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxMovementDays bounds the window of GetMovement.
const MaxMovementDays = 90

type ReportService interface {
	GetStockStats(ctx context.Context, storeID uuid.UUID) (*model.StockStats, error)
	GetMovement(ctx context.Context, storeID uuid.UUID, days int) ([]model.MovementDay, error)
}

type reportService struct {
	Deps
	now func() time.Time
}

func NewReportService(d Deps) ReportService {
	return &reportService{Deps: d.withDefaults(), now: time.Now}
}

func (s *reportService) GetStockStats(ctx context.Context, storeID uuid.UUID) (*model.StockStats, error) {
	const op = "GetStockStats"
	if _, err := s.Catalog.FindStore(s.Runner.DB(ctx), storeID); err != nil {
		return nil, storeErr(op, "store", storeID, err)
	}
	stats, err := s.Stocks.Stats(ctx, storeID, s.LowStockThreshold)
	if err != nil {
		return nil, storeErr(op, "stock", storeID, err)
	}
	return stats, nil
}

// GetMovement returns one entry per UTC day, today included, oldest first.
// Days without transactions are present with zero totals.
func (s *reportService) GetMovement(ctx context.Context, storeID uuid.UUID, days int) ([]model.MovementDay, error) {
	const op = "GetMovement"
	if days < 1 || days > MaxMovementDays {
		return nil, invalid(op, "days must be between 1 and %d", MaxMovementDays)
	}
	if _, err := s.Catalog.FindStore(s.Runner.DB(ctx), storeID); err != nil {
		return nil, storeErr(op, "store", storeID, err)
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -(days - 1))
	to := today.AddDate(0, 0, 1)
	rows, err := s.Transactions.ListTotals(ctx, storeID, from, to)
	if err != nil {
		return nil, storeErr(op, "transaction", storeID, err)
	}

	out := make([]model.MovementDay, days)
	for i := range out {
		out[i] = model.MovementDay{
			Date:      from.AddDate(0, 0, i).Format(time.DateOnly),
			Sales:     decimal.Zero,
			Purchases: decimal.Zero,
		}
	}
	for _, r := range rows {
		i := int(r.DateTime.UTC().Sub(from) / (24 * time.Hour))
		if i < 0 || i >= days {
			continue
		}
		switch r.Type {
		case model.TxSale:
			out[i].Sales = out[i].Sales.Add(r.Total)
		case model.TxPurchase:
			out[i].Purchases = out[i].Purchases.Add(r.Total)
		}
		out[i].Count++
	}
	for i := range out {
		out[i].Sales = out[i].Sales.Round(model.MoneyScale)
		out[i].Purchases = out[i].Purchases.Round(model.MoneyScale)
	}
	return out, nil
}
