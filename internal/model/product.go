package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is catalog data. The ledger and recorder only read it.
type Product struct {
	BaseModel
	Name        string          `gorm:"type:varchar(255);not null;index" json:"name" validate:"required"`
	Price       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Brand       string          `gorm:"type:varchar(100);index" json:"brand,omitempty"`
	SKU         string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku" validate:"required"`
	Barcode     string          `gorm:"type:varchar(64);index" json:"barcode,omitempty"`

	// Logical delete. Disabled products stay referenced by history but cannot be settled.
	Disabled bool `gorm:"not null" json:"disabled"`
}

type Category struct {
	BaseModel
	Name string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
}

// Provider supplies products; every purchase references one.
type Provider struct {
	BaseModel
	Name  string `gorm:"type:varchar(255);not null" json:"name"`
	Email string `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone string `gorm:"type:varchar(30)" json:"phone,omitempty"`
}

type Client struct {
	BaseModel
	Name  string `gorm:"type:varchar(255);not null" json:"name"`
	Email string `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone string `gorm:"type:varchar(30)" json:"phone,omitempty"`
}

type Store struct {
	BaseModel
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Address string `gorm:"type:varchar(255)" json:"address,omitempty"`
}

// ProductCategory links a product to a category by id.
type ProductCategory struct {
	ProductID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"product_id"`
	CategoryID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"category_id"`
}

// ProductProvider links a product to a provider by id.
type ProductProvider struct {
	ProductID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"product_id"`
	ProviderID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"provider_id"`
}
