package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/shopstock/internal/service"
	"github.com/suteetoe/shopstock/pkg/apperror"
	"github.com/suteetoe/shopstock/pkg/logger"
	"github.com/suteetoe/shopstock/prometheus"
	"go.uber.org/zap"
)

// ListProducts handles retrieving the visible products, newest first
func (h *Handler) ListProducts(c echo.Context) error {
	log := logger.FromEcho(c)
	a, err := currentActor(c)
	if err != nil {
		return err
	}

	filter := service.ProductFilter{}
	if filter.PageRequest, err = pageRequest(c); err != nil {
		return err
	}
	if filter.CategoryID, err = optionalID(c, "category_id"); err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("select")(time.Now())
	page, err := h.inventory.ListProducts(c.Request().Context(), a, filter)
	if err != nil {
		return err
	}

	log.Debug("Products retrieved", zap.Int64("count", page.Count), zap.Int("page", page.Page))
	return c.JSON(http.StatusOK, page)
}

// LowStockProducts lists products whose stock is under ?threshold (default 10)
func (h *Handler) LowStockProducts(c echo.Context) error {
	log := logger.FromEcho(c)
	a, err := currentActor(c)
	if err != nil {
		return err
	}

	threshold := service.DefaultLowStockThreshold
	if raw := c.QueryParam("threshold"); raw != "" {
		threshold, err = strconv.Atoi(raw)
		if err != nil {
			return apperror.New(apperror.CodeValidation, "Invalid input.").
				WithField("threshold", "Threshold must be a positive number.")
		}
	}
	req, err := pageRequest(c)
	if err != nil {
		return err
	}

	page, err := h.inventory.LowStock(c.Request().Context(), a, threshold, req)
	if err != nil {
		return err
	}

	log.Info("Low stock products retrieved", zap.Int("threshold", threshold), zap.Int64("count", page.Count))
	return c.JSON(http.StatusOK, page)
}

// GetProduct handles retrieving a single product by ID
func (h *Handler) GetProduct(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Product")
	if err != nil {
		return err
	}

	product, err := h.inventory.GetProduct(c.Request().Context(), a, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct handles creating a product and its opening stock entry
func (h *Handler) CreateProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordProductOperation("create")

	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req service.ProductInput
	if err := bind(c, &req); err != nil {
		log.Warn("Invalid product request", zap.Error(err))
		return err
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	product, err := h.inventory.CreateProduct(c.Request().Context(), a, req)
	if err != nil {
		log.Warn("Failed to create product", zap.String("name", req.Name), zap.Error(err))
		return err
	}
	if req.InitialStock > 0 {
		prometheus.RecordInventoryMovement("initial_stock", product.ShopID, product.ID, product.StockQuantity)
	} else {
		prometheus.UpdateProductStock(product.ShopID, product.ID, product.StockQuantity)
	}

	log.Info("Product created",
		zap.Uint("product_id", product.ID),
		zap.Uint("shop_id", product.ShopID),
		zap.String("name", product.Name),
		zap.Int("initial_stock", req.InitialStock))
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles editing product details. Stock is not editable here.
func (h *Handler) UpdateProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordProductOperation("update")

	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Product")
	if err != nil {
		return err
	}
	var req service.ProductUpdate
	if err := bind(c, &req); err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	product, err := h.inventory.UpdateProduct(c.Request().Context(), a, id, req)
	if err != nil {
		log.Warn("Failed to update product", zap.Uint("product_id", id), zap.Error(err))
		return err
	}

	log.Info("Product updated", zap.Uint("product_id", product.ID))
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles deleting a product that has no stock left
func (h *Handler) DeleteProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordProductOperation("delete")

	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Product")
	if err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.inventory.DeleteProduct(c.Request().Context(), a, id); err != nil {
		log.Warn("Failed to delete product", zap.Uint("product_id", id), zap.Error(err))
		return err
	}

	prometheus.ForgetProductStock(id)

	log.Info("Product deleted", zap.Uint("product_id", id))
	return c.JSON(http.StatusOK, echo.Map{"id": id, "deleted": true})
}

// VerifyProductLedger replays a product's ledger against its stock counter
func (h *Handler) VerifyProductLedger(c echo.Context) error {
	log := logger.FromEcho(c)
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Product")
	if err != nil {
		return err
	}

	report, err := h.inventory.VerifyProductLedger(c.Request().Context(), a, id)
	if err != nil {
		return err
	}
	if !report.Consistent {
		log.Error("Ledger does not match stock",
			zap.Uint("product_id", id),
			zap.Int("stock_quantity", report.StockQuantity),
			zap.Int("replayed_quantity", report.ReplayedQuantity),
			zap.String("replay_error", report.ReplayError))
	}
	return c.JSON(http.StatusOK, report)
}
