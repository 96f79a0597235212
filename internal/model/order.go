package model

import (
	"time"
)

// OrderStatus is derived from the delivery date and is never stored
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderDueSoon   OrderStatus = "due_soon"
	OrderDelivered OrderStatus = "delivered"
)

// DueSoonWindow is how close a delivery must be to count as due soon
const DueSoonWindow = 24 * time.Hour

// Order is a delivery scheduled against a shop
type Order struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	ShopID       uint        `json:"shop_id" gorm:"index;not null"`
	Shop         *Shop       `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	ActorID      *uint       `json:"actor_id" gorm:"index"`
	Actor        *Account    `json:"-" gorm:"constraint:OnDelete:SET NULL"`
	CategoryID   *uint       `json:"category_id" gorm:"index"`
	Category     *Category   `json:"-" gorm:"constraint:OnDelete:SET NULL"`
	TotalItems   int         `json:"total_items" gorm:"not null"`
	DeliveryDate time.Time   `json:"delivery_date" gorm:"index;not null"`
	Notes        string      `json:"notes" gorm:"type:varchar(500)"`
	Status       OrderStatus `json:"status" gorm:"-"`
	CreatedAt    time.Time   `json:"created_at" gorm:"<-:create"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// DeriveOrderStatus classifies a delivery date relative to now
func DeriveOrderStatus(deliveryDate, now time.Time) OrderStatus {
	switch {
	case !deliveryDate.After(now):
		return OrderDelivered
	case deliveryDate.Sub(now) <= DueSoonWindow:
		return OrderDueSoon
	default:
		return OrderPending
	}
}

// Locked reports whether the order can no longer be changed at now
func (o *Order) Locked(now time.Time) bool {
	return !o.DeliveryDate.After(now)
}

// Stamp fills the derived status for now
func (o *Order) Stamp(now time.Time) {
	o.Status = DeriveOrderStatus(o.DeliveryDate, now)
}
