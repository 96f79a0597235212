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

// ListOrders handles retrieving the visible orders in creation order
func (h *Handler) ListOrders(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}

	filter := service.OrderFilter{}
	if filter.PageRequest, err = pageRequest(c); err != nil {
		return err
	}
	if filter.ShopID, err = optionalID(c, "shop_id"); err != nil {
		return err
	}

	page, err := h.orders.ListOrders(c.Request().Context(), a, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// AllOrders handles the order status overview
func (h *Handler) AllOrders(c echo.Context) error {
	log := logger.FromEcho(c)
	a, err := currentActor(c)
	if err != nil {
		return err
	}

	summaries, err := h.orders.AllOrders(c.Request().Context(), a)
	if err != nil {
		return err
	}

	log.Debug("Order overview retrieved", zap.Int("count", summaries.Count))
	return c.JSON(http.StatusOK, summaries)
}

// GetOrder handles retrieving a single order by ID
func (h *Handler) GetOrder(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Order")
	if err != nil {
		return err
	}

	order, err := h.orders.GetOrder(c.Request().Context(), a, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// CreateOrder handles scheduling a new order
func (h *Handler) CreateOrder(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOrderOperation("create")

	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req service.OrderInput
	if err := bind(c, &req); err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	order, err := h.orders.CreateOrder(c.Request().Context(), a, req)
	if err != nil {
		log.Warn("Failed to create order", zap.Int("total_items", req.TotalItems), zap.Error(err))
		return err
	}

	log.Info("Order created",
		zap.Uint("order_id", order.ID),
		zap.Uint("shop_id", order.ShopID),
		zap.Int("total_items", order.TotalItems),
		zap.Time("delivery_date", order.DeliveryDate))
	return c.JSON(http.StatusCreated, order)
}

// UpdateOrder handles editing an order that is not yet due
func (h *Handler) UpdateOrder(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOrderOperation("update")

	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Order")
	if err != nil {
		return err
	}
	var req service.OrderUpdate
	if err := bind(c, &req); err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	order, err := h.orders.UpdateOrder(c.Request().Context(), a, id, req)
	if err != nil {
		log.Warn("Failed to update order", zap.Uint("order_id", id), zap.Error(err))
		return err
	}

	log.Info("Order updated", zap.Uint("order_id", id), zap.String("status", string(order.Status)))
	return c.JSON(http.StatusOK, order)
}

// DeleteOrder handles deleting an order that is not yet due
func (h *Handler) DeleteOrder(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOrderOperation("delete")

	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Order")
	if err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.orders.DeleteOrder(c.Request().Context(), a, id); err != nil {
		log.Warn("Failed to delete order", zap.Uint("order_id", id), zap.Error(err))
		return err
	}

	log.Info("Order deleted", zap.Uint("order_id", id))
	return c.NoContent(http.StatusNoContent)
}
