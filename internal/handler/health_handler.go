package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// HealthCheck handles the health check endpoint. The database is pinged so a
// lost connection reports unhealthy.
func HealthCheck(serviceName string, db *gorm.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		status, code := "healthy", http.StatusOK

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request().Context())
		}
		if err != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		return c.JSON(code, echo.Map{
			"status":  status,
			"service": serviceName,
		})
	}
}
