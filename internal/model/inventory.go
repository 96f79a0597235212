package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrLedgerImmutable is returned when something tries to rewrite a ledger entry.
var ErrLedgerImmutable = errors.New("inventory entries are append-only")

// InventoryEntry is one movement in a product's stock ledger
type InventoryEntry struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	ShopID        uint         `json:"shop_id" gorm:"index;not null"`
	Shop          *Shop        `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	ProductID     uint         `json:"product_id" gorm:"index;not null"`
	Product       *Product     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Quantity      int          `json:"quantity" gorm:"not null"`
	MovementType  MovementType `json:"movement_type" gorm:"type:varchar(20);index;not null"`
	BalanceBefore int          `json:"balance_before" gorm:"not null"`
	BalanceAfter  int          `json:"balance_after" gorm:"not null"`
	Notes         string       `json:"notes" gorm:"type:text"`
	ActorID       *uint        `json:"actor_id" gorm:"index"`
	Actor         *Account     `json:"-" gorm:"constraint:OnDelete:SET NULL"`
	CreatedAt     time.Time    `json:"created_at" gorm:"index;not null"`
}

// BeforeUpdate refuses updates through gorm
func (e *InventoryEntry) BeforeUpdate(tx *gorm.DB) error {
	return ErrLedgerImmutable
}

// BeforeDelete refuses deletes through gorm. Rows still go away with their
// shop through the database cascade.
func (e *InventoryEntry) BeforeDelete(tx *gorm.DB) error {
	return ErrLedgerImmutable
}
