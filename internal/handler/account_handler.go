package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/shopstock/internal/service"
	"github.com/suteetoe/shopstock/pkg/logger"
	"github.com/suteetoe/shopstock/prometheus"
	"go.uber.org/zap"
)

// GetProfile returns the caller's account
func (h *Handler) GetProfile(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}

	account, err := h.directory.Me(c.Request().Context(), a)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// ListAccounts handles listing every account. Staff only.
func (h *Handler) ListAccounts(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	req, err := pageRequest(c)
	if err != nil {
		return err
	}

	page, err := h.directory.ListAccounts(c.Request().Context(), a, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// GetAccount handles retrieving one account
func (h *Handler) GetAccount(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Account")
	if err != nil {
		return err
	}

	account, err := h.directory.GetAccount(c.Request().Context(), a, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// AssignAccountShop handles moving an account into or out of a shop
func (h *Handler) AssignAccountShop(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordShopOperation("assign_account")

	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Account")
	if err != nil {
		return err
	}
	var req service.ShopAssignment
	if err := bind(c, &req); err != nil {
		return err
	}

	account, err := h.directory.AssignAccountShop(c.Request().Context(), a, id, req.ShopID)
	if err != nil {
		log.Warn("Failed to change account shop", zap.Uint("account_id", id), zap.Error(err))
		return err
	}

	if account.ShopID != nil {
		log.Info("Account assigned to shop", zap.Uint("account_id", id), zap.Uint("shop_id", *account.ShopID))
	} else {
		log.Info("Account removed from shop", zap.Uint("account_id", id))
	}
	return c.JSON(http.StatusOK, account)
}

// DeleteAccount handles deleting an account and the shops it owns
func (h *Handler) DeleteAccount(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordShopOperation("delete_account")

	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Account")
	if err != nil {
		return err
	}

	if err := h.directory.DeleteAccount(c.Request().Context(), a, id); err != nil {
		log.Warn("Failed to delete account", zap.Uint("account_id", id), zap.Error(err))
		return err
	}

	log.Info("Account deleted", zap.Uint("account_id", id))
	return c.NoContent(http.StatusNoContent)
}
