package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PosStatus string

const (
	PosOnline  PosStatus = "ONLINE"
	PosOffline PosStatus = "OFFLINE"
)

// Pos is a cash register. Status, cash and employee are runtime fields owned by the session manager.
type Pos struct {
	BaseModel
	StoreID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"store_id"`
	Name       string          `gorm:"type:varchar(100);not null" json:"name"`
	CashAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"cash_amount"`
	Status     PosStatus       `gorm:"type:varchar(10);not null" json:"status"`
	EmployeeID *uuid.UUID      `gorm:"type:uuid" json:"employee_id,omitempty"`
}

func (Pos) TableName() string {
	return "pos"
}

// SessionPos is one open..close period of a POS.
// Only one row per POS may have a NULL close_time.
type SessionPos struct {
	BaseModel
	PosID         uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_session_pos_open,where:close_time IS NULL" json:"pos_id"`
	EmployeeID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"employee_id"`
	OpeningTime   time.Time       `gorm:"not null" json:"opening_time"`
	CloseTime     *time.Time      `gorm:"index" json:"close_time,omitempty"`
	OpeningAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"opening_amount"`

	// Null until the session is closed.
	CloseAmount    decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"close_amount"`
	ExpectedAmount decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"expected_amount"`
	CashDifference decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"cash_difference"`
}

func (SessionPos) TableName() string {
	return "session_pos"
}

// IsOpen reports whether the session has not been closed yet.
func (s *SessionPos) IsOpen() bool {
	return s.CloseTime == nil
}

// SessionSummary is the running cash position of a session.
type SessionSummary struct {
	SessionID      uuid.UUID           `json:"session_id"`
	PosID          uuid.UUID           `json:"pos_id"`
	Open           bool                `json:"open"`
	OpeningAmount  decimal.Decimal     `json:"opening_amount"`
	CashSales      decimal.Decimal     `json:"cash_sales"`
	CashPurchases  decimal.Decimal     `json:"cash_purchases"`
	ExpectedAmount decimal.Decimal     `json:"expected_amount"`
	CloseAmount    decimal.NullDecimal `json:"close_amount"`
	CashDifference decimal.NullDecimal `json:"cash_difference"`
	Transactions   int64               `json:"transactions"`
}
