// Package actor carries the authenticated caller through service calls.
package actor

import (
	"context"

	"gorm.io/gorm"
)

// Actor is the account on whose behalf an operation runs
type Actor struct {
	AccountID uint
	TenantID  *uint
	IsStaff   bool
}

// HasTenant reports whether the actor is assigned to a shop
func (a Actor) HasTenant() bool {
	return a.TenantID != nil
}

// CanAccess reports whether the actor may see rows of shopID
func (a Actor) CanAccess(shopID uint) bool {
	if a.IsStaff {
		return true
	}
	return a.TenantID != nil && *a.TenantID == shopID
}

// Scope limits a query to the rows the actor may see. Staff see every shop
// and an actor without a shop sees nothing.
func (a Actor) Scope(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case a.IsStaff:
			return db
		case a.TenantID != nil:
			return db.Where(column+" = ?", *a.TenantID)
		default:
			return db.Where("1 = 0")
		}
	}
}

type contextKey struct{}

// WithContext returns ctx carrying a
func WithContext(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext returns the actor stored in ctx
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}
