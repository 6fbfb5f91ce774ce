package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuantityScale is the number of fractional digits kept for stock quantities.
const QuantityScale = 3

// Stock is the quantity of one product at one store.
type Stock struct {
	ProductID uuid.UUID       `gorm:"type:uuid;primaryKey" json:"product_id"`
	StoreID   uuid.UUID       `gorm:"type:uuid;primaryKey;index" json:"store_id"`
	Quantity  decimal.Decimal `gorm:"type:numeric(18,3);not null" json:"quantity"`

	// Set when a low-stock alert went out for the current depletion episode.
	LowStockAlertSent bool `gorm:"not null" json:"low_stock_alert_sent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockItem is a stock row joined with the product columns used for filtering.
type StockItem struct {
	ProductID         uuid.UUID       `json:"product_id"`
	StoreID           uuid.UUID       `json:"store_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	LowStockAlertSent bool            `json:"low_stock_alert_sent"`
	Name              string          `json:"name"`
	SKU               string          `json:"sku"`
	Barcode           string          `json:"barcode"`
	Brand             string          `json:"brand"`
	Price             decimal.Decimal `json:"price"`
}

// StockFilter narrows ListByStore. Zero values mean "no constraint".
type StockFilter struct {
	Name        string
	SKU         string
	Barcode     string
	Brand       string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	MinStock    *decimal.Decimal
	MaxStock    *decimal.Decimal
	CategoryIDs []uuid.UUID
	ProviderIDs []uuid.UUID
}

// LowStockAlert is emitted once per depletion episode of a stock row.
type LowStockAlert struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	StoreID     uuid.UUID       `json:"store_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Threshold   decimal.Decimal `json:"threshold"`
	At          time.Time       `json:"at"`
}

// StockStats summarises the stock held by one store.
type StockStats struct {
	StoreID   uuid.UUID       `json:"store_id"`
	Products  int64           `json:"products"`
	LowStock  int64           `json:"low_stock"`
	Units     decimal.Decimal `json:"units"`
	Valuation decimal.Decimal `json:"valuation"`
	Threshold decimal.Decimal `json:"threshold"`
}

// MovementDay is the sales and purchase volume of one UTC day.
type MovementDay struct {
	Date      string          `json:"date"`
	Sales     decimal.Decimal `json:"sales"`
	Purchases decimal.Decimal `json:"purchases"`
	Count     int             `json:"count"`
}
