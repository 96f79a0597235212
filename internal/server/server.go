// Package server assembles the echo application.
package server

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/suteetoe/shopstock/internal/handler"
	"github.com/suteetoe/shopstock/internal/middleware"
	"github.com/suteetoe/shopstock/internal/service"
	"github.com/suteetoe/shopstock/pkg/jwtutil"
	"github.com/suteetoe/shopstock/pkg/logger"
	"github.com/suteetoe/shopstock/pkg/metrics"
	"gorm.io/gorm"
)

// Deps is everything the HTTP application needs
type Deps struct {
	ServiceName string
	DB          *gorm.DB
	JWT         *jwtutil.JWTUtil
	Options     []service.Option
}

// New builds the echo instance with middleware and routes
func New(deps Deps) *echo.Echo {
	inventory := service.NewInventory(deps.DB, deps.Options...)
	orders := service.NewOrders(deps.DB, deps.Options...)
	directory := service.NewDirectory(deps.DB, deps.Options...)
	h := handler.New(inventory, orders, directory)
	auth := middleware.NewAuth(deps.JWT, directory)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler

	// Order matters: the logger must see the request id and the final status
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(metrics.NewHTTPMetrics(deps.ServiceName).Middleware())

	e.GET("/health", handler.HealthCheck(deps.ServiceName, deps.DB))
	e.GET("/metrics", echo.WrapHandler(metrics.GetPrometheusHandler()))

	api := e.Group("/api", auth.Middleware)

	products := api.Group("/products")
	products.GET("", h.ListProducts)
	products.POST("", h.CreateProduct)
	products.GET("/low-stock", h.LowStockProducts)
	products.GET("/:id", h.GetProduct)
	products.PUT("/:id", h.UpdateProduct)
	products.DELETE("/:id", h.DeleteProduct)
	products.GET("/:id/ledger/verify", h.VerifyProductLedger)

	categories := api.Group("/categories")
	categories.GET("", h.ListCategories)
	categories.POST("", h.CreateCategory)
	categories.GET("/:id", h.GetCategory)
	categories.PUT("/:id", h.UpdateCategory)
	categories.DELETE("/:id", h.DeleteCategory)

	inv := api.Group("/inventory")
	inv.GET("", h.ListMovements)
	inv.POST("", h.RecordMovement)
	inv.GET("/:id", h.GetMovement)

	ords := api.Group("/orders")
	ords.GET("", h.ListOrders)
	ords.POST("", h.CreateOrder)
	ords.GET("/all", h.AllOrders)
	ords.GET("/:id", h.GetOrder)
	ords.PUT("/:id", h.UpdateOrder)
	ords.DELETE("/:id", h.DeleteOrder)

	shops := api.Group("/shops")
	shops.GET("", h.ListShops)
	shops.POST("", h.CreateShop)
	shops.GET("/:id", h.GetShop)
	shops.PUT("/:id", h.UpdateShop)
	shops.DELETE("/:id", h.DeleteShop)

	accounts := api.Group("/accounts")
	accounts.GET("", h.ListAccounts)
	accounts.GET("/me", h.GetProfile)
	accounts.GET("/:id", h.GetAccount)
	accounts.PUT("/:id/shop", h.AssignAccountShop)
	accounts.DELETE("/:id", h.DeleteAccount)

	return e
}
