package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/shopstock/internal/model"
	"github.com/suteetoe/shopstock/internal/service"
	"github.com/suteetoe/shopstock/pkg/apperror"
	"github.com/suteetoe/shopstock/pkg/logger"
	"github.com/suteetoe/shopstock/prometheus"
	"go.uber.org/zap"
)

// RecordMovement handles appending a ledger entry
func (h *Handler) RecordMovement(c echo.Context) error {
	log := logger.FromEcho(c)

	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req service.MovementInput
	if err := bind(c, &req); err != nil {
		prometheus.RecordInventoryRejected(string(apperror.CodeValidation))
		return err
	}

	defer prometheus.TrackDBOperation("ledger_append")(time.Now())
	entry, err := h.inventory.RecordMovement(c.Request().Context(), a, req)
	if err != nil {
		code := apperror.CodeOf(err)
		prometheus.RecordInventoryRejected(string(code))
		log.Warn("Inventory movement rejected",
			zap.Uint("product_id", req.ProductID),
			zap.String("movement_type", string(req.MovementType)),
			zap.Int("quantity", req.Quantity),
			zap.String("code", string(code)),
			zap.Error(err))
		return err
	}

	prometheus.RecordInventoryMovement(string(entry.MovementType), entry.ShopID, entry.ProductID, entry.BalanceAfter)
	log.Info("Inventory movement recorded",
		zap.Uint("entry_id", entry.ID),
		zap.Uint("product_id", entry.ProductID),
		zap.String("movement_type", string(entry.MovementType)),
		zap.Int("quantity", entry.Quantity),
		zap.Int("balance_before", entry.BalanceBefore),
		zap.Int("balance_after", entry.BalanceAfter))
	return c.JSON(http.StatusCreated, entry)
}

// ListMovements handles retrieving ledger entries, newest first
func (h *Handler) ListMovements(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}

	filter := service.MovementFilter{MovementType: model.MovementType(c.QueryParam("movement_type"))}
	if filter.PageRequest, err = pageRequest(c); err != nil {
		return err
	}
	if filter.ProductID, err = optionalID(c, "product_id"); err != nil {
		return err
	}

	page, err := h.inventory.ListMovements(c.Request().Context(), a, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// GetMovement handles retrieving one ledger entry
func (h *Handler) GetMovement(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Inventory entry")
	if err != nil {
		return err
	}

	entry, err := h.inventory.GetMovement(c.Request().Context(), a, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry)
}
