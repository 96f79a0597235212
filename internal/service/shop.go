package service

import (
	"context"
	"strings"

	"github.com/suteetoe/shopstock/internal/actor"
	"github.com/suteetoe/shopstock/internal/model"
	"github.com/suteetoe/shopstock/pkg/apperror"
	"gorm.io/gorm"
)

// Directory manages shops and the accounts assigned to them
type Directory struct {
	base
}

// NewDirectory creates the shop and account service
func NewDirectory(db *gorm.DB, opts ...Option) *Directory {
	return &Directory{base: newBase(db, opts)}
}

// ShopInput creates or renames a shop
type ShopInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

// shopScope limits shops to those the actor works in or owns
func shopScope(a actor.Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case a.IsStaff:
			return db
		case a.TenantID != nil:
			return db.Where("id = ? OR owner_id = ?", *a.TenantID, a.AccountID)
		default:
			return db.Where("owner_id = ?", a.AccountID)
		}
	}
}

// CreateShop creates a shop owned by the actor. An actor without a shop is
// assigned to the new one.
func (s *Directory) CreateShop(ctx context.Context, a actor.Actor, in ShopInput) (*model.Shop, error) {
	in.Name = strings.TrimSpace(in.Name)
	fields, err := structFields(in)
	if err != nil {
		return nil, err
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	var shop *model.Shop
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		shop = &model.Shop{Name: in.Name, OwnerID: a.AccountID, CreatedAt: s.now()}
		if err := tx.Create(shop).Error; err != nil {
			return err
		}
		if a.HasTenant() {
			return nil
		}
		return tx.Model(&model.Account{}).
			Where("id = ? AND shop_id IS NULL", a.AccountID).
			Update("shop_id", shop.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return shop, nil
}

// GetShop returns one shop the actor works in or owns
func (s *Directory) GetShop(ctx context.Context, a actor.Actor, id uint) (*model.Shop, error) {
	var shop model.Shop
	err := s.read(ctx, func(db *gorm.DB) error {
		return notFound(db.Scopes(shopScope(a)).First(&shop, id).Error, "Shop")
	})
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// ListShops lists the shops visible to the actor
func (s *Directory) ListShops(ctx context.Context, a actor.Actor, req PageRequest) (Page[model.Shop], error) {
	var page Page[model.Shop]
	err := s.read(ctx, func(db *gorm.DB) error {
		var err error
		page, err = paginate[model.Shop](db.Model(&model.Shop{}).Scopes(shopScope(a)), req, "id ASC")
		return err
	})
	return page, err
}

// UpdateShop renames a shop. Only its owner or staff may do so.
func (s *Directory) UpdateShop(ctx context.Context, a actor.Actor, id uint, in ShopInput) (*model.Shop, error) {
	in.Name = strings.TrimSpace(in.Name)

	var shop model.Shop
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := s.ownedShop(tx, a, id, &shop); err != nil {
			return err
		}
		fields, err := structFields(in)
		if err != nil {
			return err
		}
		if err := fields.Err(); err != nil {
			return err
		}
		if err := tx.Model(&shop).Update("name", in.Name).Error; err != nil {
			return err
		}
		shop.Name = in.Name
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// DeleteShop removes a shop and, through the database cascade, everything
// scoped to it. Member accounts are left without a shop.
func (s *Directory) DeleteShop(ctx context.Context, a actor.Actor, id uint) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		var shop model.Shop
		if err := s.ownedShop(tx, a, id, &shop); err != nil {
			return err
		}
		if err := tx.Model(&model.Account{}).
			Where("shop_id = ?", shop.ID).
			Update("shop_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&shop).Error
	})
}

// ownedShop loads a visible shop into dst and checks the actor may manage it
func (s *Directory) ownedShop(tx *gorm.DB, a actor.Actor, id uint, dst *model.Shop) error {
	if err := tx.Scopes(shopScope(a)).First(dst, id).Error; err != nil {
		return notFound(err, "Shop")
	}
	if !a.IsStaff && dst.OwnerID != a.AccountID {
		return apperror.Forbidden("Only the shop owner can manage this shop.")
	}
	return nil
}
