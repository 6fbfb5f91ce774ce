package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for monetary amounts.
const MoneyScale = 2

type TransactionType string

const (
	TxSale     TransactionType = "SALE"
	TxPurchase TransactionType = "PURCHASE"
	TxOther    TransactionType = "OTHER"
)

type PaymentMethod string

const (
	PaymentCredit  PaymentMethod = "CREDIT"
	PaymentDebit   PaymentMethod = "DEBIT"
	PaymentCash    PaymentMethod = "CASH"
	PaymentDigital PaymentMethod = "DIGITAL"
)

// Transaction is one recorded business event. Type never changes after creation.
type Transaction struct {
	BaseModel
	Total         decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`
	DateTime      time.Time       `gorm:"not null;index" json:"date_time"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(10);not null;index" json:"payment_method"`
	Description   string          `gorm:"type:text" json:"description"`
	Type          TransactionType `gorm:"type:varchar(10);not null;index" json:"type"`
	StoreID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"store_id"`
	SessionPosID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"session_pos_id"`

	// Loaded explicitly by the repository, never through an association.
	Details []DetailTransaction `gorm:"-" json:"details"`
}

// DetailTransaction is one line item. Subtotal = round2(Quantity * UnitPrice).
type DetailTransaction struct {
	BaseModel
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"transaction_id"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity      decimal.Decimal `gorm:"type:numeric(18,3);not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_price"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
}

// TransactionFilter narrows FindAll. Nil fields are ignored.
type TransactionFilter struct {
	StoreID       *uuid.UUID
	SessionPosID  *uuid.UUID
	PaymentMethod *PaymentMethod
	Type          *TransactionType
	From          *time.Time
	To            *time.Time
}

// Sale links a SALE transaction to an optional client.
type Sale struct {
	TransactionID uuid.UUID  `gorm:"type:uuid;primaryKey" json:"transaction_id"`
	ClientID      *uuid.UUID `gorm:"type:uuid;index" json:"client_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CreatedBy     string     `gorm:"type:varchar(255)" json:"created_by,omitempty"`
	UpdatedBy     string     `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
}

// Purchase links a PURCHASE transaction to its provider.
type Purchase struct {
	TransactionID uuid.UUID `gorm:"type:uuid;primaryKey" json:"transaction_id"`
	ProviderID    uuid.UUID `gorm:"type:uuid;not null;index" json:"provider_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	CreatedBy     string    `gorm:"type:varchar(255)" json:"created_by,omitempty"`
	UpdatedBy     string    `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
}
