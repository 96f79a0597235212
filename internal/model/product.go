package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category groups products within a shop
type Category struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	Name          string `json:"name" gorm:"type:varchar(255);not null"`
	ShopID        uint   `json:"shop_id" gorm:"index;not null"`
	Shop          *Shop  `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	ProductsCount int64  `json:"products_count" gorm:"-"`
}

// Product represents the product master data. StockQuantity is written only
// by the inventory ledger.
type Product struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	Name          string          `json:"name" gorm:"type:varchar(255);not null"`
	Description   string          `json:"description" gorm:"type:text"`
	CategoryID    *uint           `json:"category_id" gorm:"index"`
	Category      *Category       `json:"category,omitempty" gorm:"constraint:OnDelete:SET NULL"`
	ShopID        uint            `json:"shop_id" gorm:"index;not null"`
	Shop          *Shop           `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null;default:0"`
	TaxRate       decimal.Decimal `json:"tax_rate" gorm:"type:decimal(5,2);not null;default:0"`
	StockQuantity int             `json:"stock_quantity" gorm:"not null;default:0"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"-" gorm:"index"`
}
