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

// ListShops handles retrieving the shops the caller works in or owns
func (h *Handler) ListShops(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	req, err := pageRequest(c)
	if err != nil {
		return err
	}

	page, err := h.directory.ListShops(c.Request().Context(), a, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// GetShop handles retrieving a single shop
func (h *Handler) GetShop(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Shop")
	if err != nil {
		return err
	}

	shop, err := h.directory.GetShop(c.Request().Context(), a, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shop)
}

// CreateShop handles shop creation. The caller becomes the owner.
func (h *Handler) CreateShop(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordShopOperation("create")

	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req service.ShopInput
	if err := bind(c, &req); err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	shop, err := h.directory.CreateShop(c.Request().Context(), a, req)
	if err != nil {
		log.Warn("Failed to create shop", zap.String("name", req.Name), zap.Error(err))
		return err
	}

	log.Info("Shop created",
		zap.Uint("shop_id", shop.ID),
		zap.Uint("owner_id", shop.OwnerID),
		zap.Bool("assigned_to_owner", !a.HasTenant()))
	return c.JSON(http.StatusCreated, shop)
}

// UpdateShop handles renaming a shop
func (h *Handler) UpdateShop(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordShopOperation("update")

	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Shop")
	if err != nil {
		return err
	}
	var req service.ShopInput
	if err := bind(c, &req); err != nil {
		return err
	}

	shop, err := h.directory.UpdateShop(c.Request().Context(), a, id, req)
	if err != nil {
		log.Warn("Failed to update shop", zap.Uint("shop_id", id), zap.Error(err))
		return err
	}

	log.Info("Shop updated", zap.Uint("shop_id", id), zap.String("name", shop.Name))
	return c.JSON(http.StatusOK, shop)
}

// DeleteShop handles deleting a shop and everything scoped to it
func (h *Handler) DeleteShop(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordShopOperation("delete")

	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Shop")
	if err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.directory.DeleteShop(c.Request().Context(), a, id); err != nil {
		log.Warn("Failed to delete shop", zap.Uint("shop_id", id), zap.Error(err))
		return err
	}

	log.Info("Shop deleted", zap.Uint("shop_id", id))
	return c.NoContent(http.StatusNoContent)
}
