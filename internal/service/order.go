package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/suteetoe/shopstock/internal/actor"
	"github.com/suteetoe/shopstock/internal/model"
	"github.com/suteetoe/shopstock/pkg/apperror"
	"gorm.io/gorm"
)

const (
	MaxOrderItems    = 10000
	MaxOrderNotes    = 500
	MinOrderNotes    = 3
	MinDeliveryLead  = 24 * time.Hour
	MaxDeliveryAhead = 365 * 24 * time.Hour
)

// Orders schedules deliveries and enforces the delivery-date lock
type Orders struct {
	base
}

// NewOrders creates the order service
func NewOrders(db *gorm.DB, opts ...Option) *Orders {
	return &Orders{base: newBase(db, opts)}
}

// OrderInput creates an order
type OrderInput struct {
	ShopID       *uint     `json:"shop_id"`
	CategoryID   *uint     `json:"category_id"`
	TotalItems   int       `json:"total_items"`
	DeliveryDate time.Time `json:"delivery_date"`
	Notes        string    `json:"notes"`
}

// OrderUpdate edits an order. Nil fields are left unchanged.
type OrderUpdate struct {
	ShopID       *uint      `json:"shop_id"`
	CategoryID   *uint      `json:"category_id"`
	TotalItems   *int       `json:"total_items"`
	DeliveryDate *time.Time `json:"delivery_date"`
	Notes        *string    `json:"notes"`
}

// OrderFilter narrows an order listing
type OrderFilter struct {
	ShopID *uint
	PageRequest
}

// OrderSummary is one row of the all-orders status view
type OrderSummary struct {
	ID           uint              `json:"id"`
	ShopName     string            `json:"shop_name"`
	CategoryName string            `json:"category_name"`
	TotalItems   int               `json:"total_items"`
	CreatedAt    time.Time         `json:"created_at"`
	DeliveryDate time.Time         `json:"delivery_date"`
	Status       model.OrderStatus `json:"status"`
}

// OrderSummaries is the all-orders status view
type OrderSummaries struct {
	Count   int            `json:"count"`
	Results []OrderSummary `json:"results"`
}

// validateOrder checks the order fields against now. Creation needs a full
// day of lead time; an update only needs a future date.
func validateOrder(totalItems int, delivery time.Time, notes string, now time.Time, creating bool, fields apperror.FieldErrors) {
	switch {
	case totalItems <= 0:
		fields.Add("total_items", "Total items must be greater than 0.")
	case totalItems > MaxOrderItems:
		fields.Add("total_items", "Total items cannot exceed 10,000.")
	}

	switch {
	case delivery.IsZero():
		fields.Add("delivery_date", "This field is required.")
	case creating && delivery.Before(now.Add(MinDeliveryLead)):
		fields.Add("delivery_date", "Delivery date must be at least 24 hours from now.")
	case !creating && !delivery.After(now):
		fields.Add("delivery_date", "Delivery date must be in the future.")
	case delivery.After(now.Add(MaxDeliveryAhead)):
		fields.Add("delivery_date", "Delivery date cannot be more than 1 year in the future.")
	}

	if notes != "" {
		n := utf8.RuneCountInString(notes)
		if n < MinOrderNotes {
			fields.Add("notes", "Notes must be at least 3 characters long if provided.")
		} else if n > MaxOrderNotes {
			fields.Add("notes", "Ensure this field has no more than 500 characters.")
		}
	}
}

// CreateOrder schedules a new order for the actor's shop
func (s *Orders) CreateOrder(ctx context.Context, a actor.Actor, in OrderInput) (*model.Order, error) {
	if err := requireTenant(a, "create orders"); err != nil {
		return nil, err
	}
	in.Notes = strings.TrimSpace(in.Notes)
	now := s.now()

	fields := apperror.FieldErrors{}
	validateOrder(in.TotalItems, in.DeliveryDate, in.Notes, now, true, fields)

	var order *model.Order
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		shop, err := resolveShop(tx, a, in.ShopID, "create orders", fields)
		if err != nil {
			return err
		}
		if shop != nil {
			if err := checkCategory(tx, in.CategoryID, shop.ID, "order", fields); err != nil {
				return err
			}
		}
		if err := fields.Err(); err != nil {
			return err
		}

		order = &model.Order{
			ShopID:       shop.ID,
			ActorID:      uintPtr(a.AccountID),
			CategoryID:   in.CategoryID,
			TotalItems:   in.TotalItems,
			DeliveryDate: in.DeliveryDate,
			Notes:        in.Notes,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}
	order.Stamp(now)
	return order, nil
}

// GetOrder returns one visible order
func (s *Orders) GetOrder(ctx context.Context, a actor.Actor, id uint) (*model.Order, error) {
	var order model.Order
	err := s.read(ctx, func(db *gorm.DB) error {
		return notFound(db.Scopes(a.Scope("shop_id")).First(&order, id).Error, "Order")
	})
	if err != nil {
		return nil, err
	}
	order.Stamp(s.now())
	return &order, nil
}

// ListOrders lists visible orders in creation order
func (s *Orders) ListOrders(ctx context.Context, a actor.Actor, f OrderFilter) (Page[model.Order], error) {
	var page Page[model.Order]
	err := s.read(ctx, func(db *gorm.DB) error {
		query := db.Model(&model.Order{}).Scopes(a.Scope("shop_id"))
		if f.ShopID != nil {
			query = query.Where("shop_id = ?", *f.ShopID)
		}

		var err error
		page, err = paginate[model.Order](query, f.PageRequest, "created_at ASC, id ASC")
		return err
	})
	if err != nil {
		return page, err
	}

	now := s.now()
	for i := range page.Results {
		page.Results[i].Stamp(now)
	}
	return page, nil
}

// AllOrders returns every visible order with its derived status
func (s *Orders) AllOrders(ctx context.Context, a actor.Actor) (*OrderSummaries, error) {
	var orders []model.Order
	err := s.read(ctx, func(db *gorm.DB) error {
		return db.Scopes(a.Scope("shop_id")).
			Preload("Shop").
			Preload("Category").
			Order("created_at ASC, id ASC").
			Find(&orders).Error
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := &OrderSummaries{Count: len(orders), Results: make([]OrderSummary, 0, len(orders))}
	for _, o := range orders {
		summary := OrderSummary{
			ID:           o.ID,
			CategoryName: "Uncategorized",
			TotalItems:   o.TotalItems,
			CreatedAt:    o.CreatedAt,
			DeliveryDate: o.DeliveryDate,
			Status:       model.DeriveOrderStatus(o.DeliveryDate, now),
		}
		if o.Shop != nil {
			summary.ShopName = o.Shop.Name
		}
		if o.Category != nil {
			summary.CategoryName = o.Category.Name
		}
		out.Results = append(out.Results, summary)
	}
	return out, nil
}

// UpdateOrder edits an order whose delivery date is still in the future.
// The shop of an order never changes.
func (s *Orders) UpdateOrder(ctx context.Context, a actor.Actor, id uint, in OrderUpdate) (*model.Order, error) {
	if err := requireTenant(a, "update orders"); err != nil {
		return nil, err
	}
	now := s.now()

	var order model.Order
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := forUpdate(tx).Scopes(a.Scope("shop_id")).First(&order, id).Error; err != nil {
			return notFound(err, "Order")
		}
		if in.ShopID != nil && *in.ShopID != order.ShopID {
			return immutableTenant("order")
		}
		if order.Locked(now) {
			return apperror.New(apperror.CodeOrderLocked, "Cannot update orders with past delivery dates.")
		}

		if in.CategoryID != nil {
			order.CategoryID = in.CategoryID
		}
		if in.TotalItems != nil {
			order.TotalItems = *in.TotalItems
		}
		if in.DeliveryDate != nil {
			order.DeliveryDate = *in.DeliveryDate
		}
		if in.Notes != nil {
			order.Notes = strings.TrimSpace(*in.Notes)
		}

		fields := apperror.FieldErrors{}
		validateOrder(order.TotalItems, order.DeliveryDate, order.Notes, now, false, fields)
		if in.CategoryID != nil {
			if err := checkCategory(tx, in.CategoryID, order.ShopID, "order", fields); err != nil {
				return err
			}
		}
		if err := fields.Err(); err != nil {
			return err
		}

		return tx.Model(&order).
			Select("category_id", "total_items", "delivery_date", "notes", "updated_at").
			Updates(&order).Error
	})
	if err != nil {
		return nil, err
	}
	order.Stamp(now)
	return &order, nil
}

// DeleteOrder removes a future order. Only its creator or staff may do so.
func (s *Orders) DeleteOrder(ctx context.Context, a actor.Actor, id uint) error {
	if err := requireTenant(a, "delete orders"); err != nil {
		return err
	}
	now := s.now()

	return s.transaction(ctx, func(tx *gorm.DB) error {
		var order model.Order
		if err := forUpdate(tx).Scopes(a.Scope("shop_id")).First(&order, id).Error; err != nil {
			return notFound(err, "Order")
		}
		if order.Locked(now) {
			return apperror.New(apperror.CodeOrderLocked, "Cannot delete orders with past delivery dates.")
		}
		if !a.IsStaff && (order.ActorID == nil || *order.ActorID != a.AccountID) {
			return apperror.Forbidden("You can only delete orders you created.")
		}
		return tx.Delete(&order).Error
	})
}
