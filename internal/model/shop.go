package model

import (
	"time"
)

// Shop is the tenant. Everything scoped to a shop is removed with it.
type Shop struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	OwnerID   uint      `json:"owner_id" gorm:"index;not null"`
	Owner     *Account  `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
}

// Account represents a user of the system. ShopID is the single shop the
// account works in; it has no foreign key so that shops and accounts can be
// migrated without a cycle.
type Account struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"type:varchar(150);uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"type:varchar(254);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255)"`
	ShopID       *uint     `json:"shop_id" gorm:"index"`
	IsStaff      bool      `json:"is_staff" gorm:"not null;default:false"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
