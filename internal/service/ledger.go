package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/suteetoe/shopstock/internal/actor"
	"github.com/suteetoe/shopstock/internal/model"
	"github.com/suteetoe/shopstock/pkg/apperror"
	"github.com/suteetoe/shopstock/pkg/validation"
	"gorm.io/gorm"
)

// MovementInput is a request to record one ledger entry
type MovementInput struct {
	ProductID    uint               `json:"product_id" validate:"required"`
	MovementType model.MovementType `json:"movement_type"`
	Quantity     int                `json:"quantity" validate:"gte=0"`
	Notes        string             `json:"notes"`
}

// MovementFilter narrows a ledger listing
type MovementFilter struct {
	ProductID    *uint
	MovementType model.MovementType
	PageRequest
}

// LedgerReport compares a product's stock counter with its replayed ledger
type LedgerReport struct {
	ProductID        uint   `json:"product_id"`
	StockQuantity    int    `json:"stock_quantity"`
	ReplayedQuantity int    `json:"replayed_quantity"`
	Entries          int    `json:"entries"`
	Consistent       bool   `json:"consistent"`
	ReplayError      string `json:"replay_error,omitempty"`
}

// RecordMovement appends a ledger entry and moves the product's stock in the
// same transaction. The product row is locked so movements on one product
// serialize.
func (s *Inventory) RecordMovement(ctx context.Context, a actor.Actor, in MovementInput) (*model.InventoryEntry, error) {
	in.Notes = strings.TrimSpace(in.Notes)

	fields, err := validation.Struct(in)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}
	if !in.MovementType.Valid() {
		return nil, apperror.Newf(apperror.CodeInvalidMovementType,
			"%q is not a valid movement type.", in.MovementType).
			WithField("movement_type", "Must be one of: "+movementTypeList()+".")
	}
	if err := requireTenant(a, "record inventory movements"); err != nil {
		return nil, err
	}

	var entry *model.InventoryEntry
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		var product model.Product
		if err := forUpdate(tx).First(&product, in.ProductID).Error; err != nil {
			return notFound(err, "Product")
		}
		if !a.CanAccess(product.ShopID) {
			return apperror.New(apperror.CodeCrossTenantReference,
				"Product belongs to another shop.")
		}

		created, err := s.appendEntry(tx, &product, in.MovementType, in.Quantity, uintPtr(a.AccountID), in.Notes)
		if err != nil {
			return err
		}
		entry = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// appendEntry applies a movement to a locked product, inserts the ledger row
// and writes the new stock counter.
func (s *Inventory) appendEntry(tx *gorm.DB, product *model.Product, kind model.MovementType, qty int, actorID *uint, notes string) (*model.InventoryEntry, error) {
	before := product.StockQuantity
	after, err := kind.Apply(before, qty)
	switch {
	case errors.Is(err, model.ErrInsufficientStock):
		return nil, apperror.Newf(apperror.CodeInsufficientStock,
			"Cannot remove %d items. Only %d available in stock.", qty, before).
			WithField("quantity", fmt.Sprintf("Only %d available in stock.", before))
	case errors.Is(err, model.ErrStockOverflow):
		return nil, apperror.New(apperror.CodeValidation, "Invalid input.").
			WithField("quantity", fmt.Sprintf("Resulting stock cannot exceed %d.", model.MaxStock))
	case err != nil:
		return nil, err
	}

	entry := &model.InventoryEntry{
		ShopID:        product.ShopID,
		ProductID:     product.ID,
		Quantity:      qty,
		MovementType:  kind,
		BalanceBefore: before,
		BalanceAfter:  after,
		Notes:         notes,
		ActorID:       actorID,
		CreatedAt:     s.now(),
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(product).Update("stock_quantity", after).Error; err != nil {
		return nil, err
	}
	product.StockQuantity = after
	return entry, nil
}

// GetMovement returns one visible ledger entry
func (s *Inventory) GetMovement(ctx context.Context, a actor.Actor, id uint) (*model.InventoryEntry, error) {
	var entry model.InventoryEntry
	err := s.read(ctx, func(db *gorm.DB) error {
		return notFound(db.Scopes(a.Scope("shop_id")).First(&entry, id).Error, "Inventory entry")
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListMovements lists visible ledger entries, newest first
func (s *Inventory) ListMovements(ctx context.Context, a actor.Actor, f MovementFilter) (Page[model.InventoryEntry], error) {
	if f.MovementType != "" && !f.MovementType.Valid() {
		return Page[model.InventoryEntry]{}, apperror.Newf(apperror.CodeInvalidMovementType,
			"%q is not a valid movement type.", f.MovementType).
			WithField("movement_type", "Must be one of: "+movementTypeList()+".")
	}

	var page Page[model.InventoryEntry]
	err := s.read(ctx, func(db *gorm.DB) error {
		query := db.Model(&model.InventoryEntry{}).Scopes(a.Scope("shop_id"))
		if f.ProductID != nil {
			query = query.Where("product_id = ?", *f.ProductID)
		}
		if f.MovementType != "" {
			query = query.Where("movement_type = ?", f.MovementType)
		}

		var err error
		page, err = paginate[model.InventoryEntry](query, f.PageRequest, "created_at DESC, id DESC")
		return err
	})
	return page, err
}

// VerifyProductLedger replays a product's ledger in insertion order and
// compares the result with the stored counter.
func (s *Inventory) VerifyProductLedger(ctx context.Context, a actor.Actor, productID uint) (*LedgerReport, error) {
	var report LedgerReport
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var product model.Product
		if err := tx.Scopes(a.Scope("shop_id")).First(&product, productID).Error; err != nil {
			return notFound(err, "Product")
		}

		var entries []model.InventoryEntry
		if err := tx.Where("product_id = ?", product.ID).Order("id ASC").Find(&entries).Error; err != nil {
			return err
		}

		replayed, replayErr := model.ReplayStock(entries)
		report = LedgerReport{
			ProductID:        product.ID,
			StockQuantity:    product.StockQuantity,
			ReplayedQuantity: replayed,
			Entries:          len(entries),
			Consistent:       replayErr == nil && replayed == product.StockQuantity,
		}
		if replayErr != nil {
			report.ReplayError = replayErr.Error()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func movementTypeList() string {
	types := model.MovementTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
