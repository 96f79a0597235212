// Package service holds the shop, catalog, ledger and order operations. Every
// operation takes the calling actor explicitly and runs in one transaction.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/suteetoe/shopstock/internal/actor"
	"github.com/suteetoe/shopstock/internal/model"
	"github.com/suteetoe/shopstock/pkg/apperror"
	"github.com/suteetoe/shopstock/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Option configures a service
type Option func(*base)

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		b.now = now
	}
}

type base struct {
	db  *gorm.DB
	now func() time.Time
}

func newBase(db *gorm.DB, opts []Option) base {
	b := base{db: db, now: time.Now}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// transaction runs fn in a database transaction. Domain errors pass through,
// concurrency failures become TRANSACTION_CONFLICT and anything else is
// reported as INTERNAL.
func (b base) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return classify(b.db.WithContext(ctx).Transaction(fn))
}

// read runs fn against a context-bound session outside a transaction
func (b base) read(ctx context.Context, fn func(db *gorm.DB) error) error {
	return classify(fn(b.db.WithContext(ctx)))
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if database.IsConflict(err) {
		return apperror.Wrap(apperror.CodeTransactionConflict,
			"The operation conflicted with a concurrent update. Please retry.", err)
	}
	return apperror.Internal(err)
}

// notFound converts gorm's missing-row error into a NOT_FOUND for resource
func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(resource)
	}
	return err
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// requireTenant rejects writes from non-staff actors that have no shop
func requireTenant(a actor.Actor, what string) error {
	if a.IsStaff || a.HasTenant() {
		return nil
	}
	return apperror.Forbidden("You must be assigned to a shop to " + what + ".")
}

// resolveShop picks the shop a new row belongs to. Non-staff always write to
// their own shop. Staff may name a shop and otherwise fall back to their own.
// Problems with the requested shop are added to fields.
func resolveShop(tx *gorm.DB, a actor.Actor, requested *uint, what string, fields apperror.FieldErrors) (*model.Shop, error) {
	var shopID uint
	switch {
	case !a.IsStaff:
		if !a.HasTenant() {
			return nil, requireTenant(a, what)
		}
		shopID = *a.TenantID
	case requested != nil:
		shopID = *requested
	case a.HasTenant():
		shopID = *a.TenantID
	default:
		fields.Add("shop_id", "This field is required.")
		return nil, nil
	}

	var shop model.Shop
	if err := tx.First(&shop, shopID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fields.Add("shop_id", "Invalid shop.")
			return nil, nil
		}
		return nil, err
	}
	return &shop, nil
}

// checkCategory verifies that categoryID exists and belongs to shopID
func checkCategory(tx *gorm.DB, categoryID *uint, shopID uint, owner string, fields apperror.FieldErrors) error {
	if categoryID == nil {
		return nil
	}
	var category model.Category
	if err := tx.First(&category, *categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fields.Add("category_id", "Invalid category.")
			return nil
		}
		return err
	}
	if category.ShopID != shopID {
		fields.Add("category_id", "Category must belong to the same shop as the "+owner+".")
	}
	return nil
}

func uintPtr(v uint) *uint {
	return &v
}
