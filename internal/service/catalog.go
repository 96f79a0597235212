package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/suteetoe/shopstock/internal/actor"
	"github.com/suteetoe/shopstock/internal/model"
	"github.com/suteetoe/shopstock/pkg/apperror"
	"github.com/suteetoe/shopstock/pkg/validation"
	"gorm.io/gorm"
)

// DefaultLowStockThreshold is used when a low-stock query names no threshold
const DefaultLowStockThreshold = 10

var (
	maxPrice   = decimal.New(1, 8) // decimal(10,2)
	maxTaxRate = decimal.NewFromInt(100)
)

// Inventory owns categories, products and the stock ledger
type Inventory struct {
	base
}

// NewInventory creates the catalog and ledger service
func NewInventory(db *gorm.DB, opts ...Option) *Inventory {
	return &Inventory{base: newBase(db, opts)}
}

// CategoryInput creates or renames a category
type CategoryInput struct {
	ShopID *uint  `json:"shop_id"`
	Name   string `json:"name" validate:"required,max=255"`
}

// ProductInput creates a product. InitialStock is booked through the ledger.
type ProductInput struct {
	ShopID       *uint           `json:"shop_id"`
	CategoryID   *uint           `json:"category_id"`
	Name         string          `json:"name" validate:"required,max=255"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	InitialStock int             `json:"initial_stock" validate:"gte=0"`
}

// ProductUpdate edits a product. Nil fields are left unchanged and stock can
// only move through the ledger.
type ProductUpdate struct {
	ShopID      *uint            `json:"shop_id"`
	CategoryID  *uint            `json:"category_id"`
	Name        *string          `json:"name" validate:"omitempty,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
}

// ProductFilter narrows a product listing
type ProductFilter struct {
	CategoryID *uint
	PageRequest
}

func validatePrice(price decimal.Decimal, fields apperror.FieldErrors) {
	if price.IsNegative() {
		fields.Add("price", "Price cannot be negative.")
	} else if price.GreaterThanOrEqual(maxPrice) {
		fields.Add("price", "Ensure that there are no more than 8 digits before the decimal point.")
	}
}

func validateTaxRate(rate decimal.Decimal, fields apperror.FieldErrors) {
	if rate.IsNegative() || rate.GreaterThan(maxTaxRate) {
		fields.Add("tax_rate", "Tax rate must be between 0 and 100.")
	}
}

func structFields(in any) (apperror.FieldErrors, error) {
	fields, err := validation.Struct(in)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if fields == nil {
		fields = apperror.FieldErrors{}
	}
	return fields, nil
}

// CreateCategory creates a category in the actor's shop, or for staff in the
// named shop.
func (s *Inventory) CreateCategory(ctx context.Context, a actor.Actor, in CategoryInput) (*model.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := requireTenant(a, "create categories"); err != nil {
		return nil, err
	}
	fields, err := structFields(in)
	if err != nil {
		return nil, err
	}

	var category *model.Category
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		shop, err := resolveShop(tx, a, in.ShopID, "create categories", fields)
		if err != nil {
			return err
		}
		if err := fields.Err(); err != nil {
			return err
		}

		category = &model.Category{Name: in.Name, ShopID: shop.ID}
		return tx.Create(category).Error
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// GetCategory returns one visible category with its product count
func (s *Inventory) GetCategory(ctx context.Context, a actor.Actor, id uint) (*model.Category, error) {
	var category model.Category
	err := s.read(ctx, func(db *gorm.DB) error {
		if err := db.Scopes(a.Scope("shop_id")).First(&category, id).Error; err != nil {
			return notFound(err, "Category")
		}
		return countProducts(db, []*model.Category{&category})
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// ListCategories lists visible categories by name
func (s *Inventory) ListCategories(ctx context.Context, a actor.Actor, req PageRequest) (Page[model.Category], error) {
	var page Page[model.Category]
	err := s.read(ctx, func(db *gorm.DB) error {
		var err error
		page, err = paginate[model.Category](db.Model(&model.Category{}).Scopes(a.Scope("shop_id")), req, "name ASC, id ASC")
		if err != nil {
			return err
		}
		refs := make([]*model.Category, len(page.Results))
		for i := range page.Results {
			refs[i] = &page.Results[i]
		}
		return countProducts(db, refs)
	})
	return page, err
}

// countProducts fills ProductsCount for categories with one grouped query
func countProducts(db *gorm.DB, categories []*model.Category) error {
	if len(categories) == 0 {
		return nil
	}
	ids := make([]uint, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}

	var rows []struct {
		CategoryID uint
		Count      int64
	}
	err := db.Model(&model.Product{}).
		Select("category_id, COUNT(*) AS count").
		Where("category_id IN ?", ids).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.CategoryID] = r.Count
	}
	for _, c := range categories {
		c.ProductsCount = counts[c.ID]
	}
	return nil
}

// UpdateCategory renames a category. Categories never move between shops.
func (s *Inventory) UpdateCategory(ctx context.Context, a actor.Actor, id uint, in CategoryInput) (*model.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := requireTenant(a, "update categories"); err != nil {
		return nil, err
	}

	var category model.Category
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Scopes(a.Scope("shop_id")).First(&category, id).Error; err != nil {
			return notFound(err, "Category")
		}
		if in.ShopID != nil && *in.ShopID != category.ShopID {
			return immutableTenant("category")
		}
		fields, err := structFields(in)
		if err != nil {
			return err
		}
		if err := fields.Err(); err != nil {
			return err
		}

		if err := tx.Model(&category).Update("name", in.Name).Error; err != nil {
			return err
		}
		category.Name = in.Name
		return countProducts(tx, []*model.Category{&category})
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCategory removes a category. Products and orders keep existing
// without a category.
func (s *Inventory) DeleteCategory(ctx context.Context, a actor.Actor, id uint) error {
	if err := requireTenant(a, "delete categories"); err != nil {
		return err
	}
	return s.transaction(ctx, func(tx *gorm.DB) error {
		var category model.Category
		if err := tx.Scopes(a.Scope("shop_id")).First(&category, id).Error; err != nil {
			return notFound(err, "Category")
		}
		if err := tx.Unscoped().Model(&model.Product{}).
			Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Order{}).
			Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
}

// CreateProduct creates a product with zero stock and, when InitialStock is
// positive, books it as an initial_stock movement by the shop owner.
func (s *Inventory) CreateProduct(ctx context.Context, a actor.Actor, in ProductInput) (*model.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := requireTenant(a, "create products"); err != nil {
		return nil, err
	}
	in.Price = in.Price.Round(2)
	in.TaxRate = in.TaxRate.Round(2)
	fields, err := structFields(in)
	if err != nil {
		return nil, err
	}
	validatePrice(in.Price, fields)
	validateTaxRate(in.TaxRate, fields)
	if in.InitialStock > model.MaxStock {
		fields.Add("initial_stock", "Ensure this value is less than or equal to 2147483647.")
	}

	var product *model.Product
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		shop, err := resolveShop(tx, a, in.ShopID, "create products", fields)
		if err != nil {
			return err
		}
		if shop != nil {
			if err := checkCategory(tx, in.CategoryID, shop.ID, "product", fields); err != nil {
				return err
			}
		}
		if err := fields.Err(); err != nil {
			return err
		}

		product = &model.Product{
			Name:        in.Name,
			Description: in.Description,
			CategoryID:  in.CategoryID,
			ShopID:      shop.ID,
			Price:       in.Price,
			TaxRate:     in.TaxRate,
		}
		if err := tx.Create(product).Error; err != nil {
			return err
		}

		if in.InitialStock > 0 {
			_, err := s.appendEntry(tx, product, model.MovementInitialStock, in.InitialStock,
				uintPtr(shop.OwnerID), "Initial stock entry")
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct returns one visible product
func (s *Inventory) GetProduct(ctx context.Context, a actor.Actor, id uint) (*model.Product, error) {
	var product model.Product
	err := s.read(ctx, func(db *gorm.DB) error {
		return notFound(db.Scopes(a.Scope("shop_id")).Preload("Category").First(&product, id).Error, "Product")
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts lists visible products, newest first
func (s *Inventory) ListProducts(ctx context.Context, a actor.Actor, f ProductFilter) (Page[model.Product], error) {
	var page Page[model.Product]
	err := s.read(ctx, func(db *gorm.DB) error {
		query := db.Model(&model.Product{}).Scopes(a.Scope("shop_id"))
		if f.CategoryID != nil {
			query = query.Where("category_id = ?", *f.CategoryID)
		}

		var err error
		page, err = paginate[model.Product](query, f.PageRequest, "created_at DESC, id DESC", "Category")
		return err
	})
	return page, err
}

// LowStock lists visible products whose stock is below threshold
func (s *Inventory) LowStock(ctx context.Context, a actor.Actor, threshold int, req PageRequest) (Page[model.Product], error) {
	if threshold < 0 {
		return Page[model.Product]{}, apperror.New(apperror.CodeValidation, "Threshold must be a positive number.").
			WithField("threshold", "Threshold must be a positive number.")
	}

	var page Page[model.Product]
	err := s.read(ctx, func(db *gorm.DB) error {
		query := db.Model(&model.Product{}).
			Scopes(a.Scope("shop_id")).
			Where("stock_quantity < ?", threshold)

		var err error
		page, err = paginate[model.Product](query, req, "stock_quantity ASC, id ASC", "Category")
		return err
	})
	return page, err
}

// UpdateProduct edits the descriptive fields of a product
func (s *Inventory) UpdateProduct(ctx context.Context, a actor.Actor, id uint, in ProductUpdate) (*model.Product, error) {
	if err := requireTenant(a, "update products"); err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}

	var product model.Product
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Scopes(a.Scope("shop_id")).First(&product, id).Error; err != nil {
			return notFound(err, "Product")
		}
		if in.ShopID != nil && *in.ShopID != product.ShopID {
			return immutableTenant("product")
		}

		fields, err := structFields(in)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if in.Name != nil {
			if *in.Name == "" {
				fields.Add("name", "This field may not be blank.")
			}
			updates["name"] = *in.Name
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.Price != nil {
			price := in.Price.Round(2)
			validatePrice(price, fields)
			updates["price"] = price
		}
		if in.TaxRate != nil {
			rate := in.TaxRate.Round(2)
			validateTaxRate(rate, fields)
			updates["tax_rate"] = rate
		}
		if in.CategoryID != nil {
			if err := checkCategory(tx, in.CategoryID, product.ShopID, "product", fields); err != nil {
				return err
			}
			updates["category_id"] = *in.CategoryID
		}
		if err := fields.Err(); err != nil {
			return err
		}

		if len(updates) > 0 {
			if err := tx.Model(&product).Updates(updates).Error; err != nil {
				return err
			}
		}
		return tx.Preload("Category").First(&product, product.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct soft-deletes a product that has no stock left. Its ledger
// stays in place.
func (s *Inventory) DeleteProduct(ctx context.Context, a actor.Actor, id uint) error {
	if err := requireTenant(a, "delete products"); err != nil {
		return err
	}
	return s.transaction(ctx, func(tx *gorm.DB) error {
		var product model.Product
		if err := forUpdate(tx).Scopes(a.Scope("shop_id")).First(&product, id).Error; err != nil {
			return notFound(err, "Product")
		}
		if product.StockQuantity > 0 {
			return apperror.New(apperror.CodeHasRemainingStock,
				"Cannot delete product with remaining stock. Please adjust inventory first.")
		}
		return tx.Delete(&product).Error
	})
}

func immutableTenant(resource string) error {
	return apperror.Newf(apperror.CodeImmutableTenant, "The shop of a %s cannot be changed.", resource).
		WithField("shop_id", "This field cannot be changed.")
}
