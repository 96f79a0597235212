package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/shopstock/internal/service"
	"github.com/suteetoe/shopstock/pkg/logger"
	"github.com/suteetoe/shopstock/prometheus"
	"go.uber.org/zap"
)

// ListCategories handles retrieving the visible categories
func (h *Handler) ListCategories(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	req, err := pageRequest(c)
	if err != nil {
		return err
	}

	page, err := h.inventory.ListCategories(c.Request().Context(), a, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// GetCategory handles retrieving a single category by ID
func (h *Handler) GetCategory(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Category")
	if err != nil {
		return err
	}

	category, err := h.inventory.GetCategory(c.Request().Context(), a, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, category)
}

// CreateCategory handles creating a new category
func (h *Handler) CreateCategory(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordCategoryOperation("create")

	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req service.CategoryInput
	if err := bind(c, &req); err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	category, err := h.inventory.CreateCategory(c.Request().Context(), a, req)
	if err != nil {
		log.Warn("Failed to create category", zap.String("name", req.Name), zap.Error(err))
		return err
	}

	log.Info("Category created",
		zap.Uint("category_id", category.ID),
		zap.Uint("shop_id", category.ShopID),
		zap.String("name", category.Name))
	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory handles renaming a category
func (h *Handler) UpdateCategory(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordCategoryOperation("update")

	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Category")
	if err != nil {
		return err
	}
	var req service.CategoryInput
	if err := bind(c, &req); err != nil {
		return err
	}

	category, err := h.inventory.UpdateCategory(c.Request().Context(), a, id, req)
	if err != nil {
		log.Warn("Failed to update category", zap.Uint("category_id", id), zap.Error(err))
		return err
	}

	log.Info("Category updated", zap.Uint("category_id", id), zap.String("name", category.Name))
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory handles deleting a category. Its products become uncategorized.
func (h *Handler) DeleteCategory(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordCategoryOperation("delete")

	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Category")
	if err != nil {
		return err
	}

	if err := h.inventory.DeleteCategory(c.Request().Context(), a, id); err != nil {
		log.Warn("Failed to delete category", zap.Uint("category_id", id), zap.Error(err))
		return err
	}

	log.Info("Category deleted", zap.Uint("category_id", id))
	return c.NoContent(http.StatusNoContent)
}
