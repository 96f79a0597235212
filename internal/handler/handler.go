// Package handler exposes the shop services over HTTP.
package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/shopstock/internal/actor"
	"github.com/suteetoe/shopstock/internal/service"
	"github.com/suteetoe/shopstock/pkg/apperror"
)

// Handler holds the services behind the HTTP routes
type Handler struct {
	inventory *service.Inventory
	orders    *service.Orders
	directory *service.Directory
}

// New creates a handler over the given services
func New(inventory *service.Inventory, orders *service.Orders, directory *service.Directory) *Handler {
	return &Handler{
		inventory: inventory,
		orders:    orders,
		directory: directory,
	}
}

// currentActor returns the actor attached by the auth middleware
func currentActor(c echo.Context) (actor.Actor, error) {
	a, ok := actor.FromContext(c.Request().Context())
	if !ok {
		return actor.Actor{}, apperror.New(apperror.CodeUnauthorized, "Authentication required.")
	}
	return a, nil
}

// bind decodes the request body into dst
func bind(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return apperror.Wrap(apperror.CodeValidation, "Invalid request data.", err)
	}
	return nil
}

// pathID parses the :id route parameter. Anything that is not a positive
// integer cannot name a row, so it is reported as missing.
func pathID(c echo.Context, resource string) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.NotFound(resource)
	}
	return uint(id), nil
}

func pageRequest(c echo.Context) (service.PageRequest, error) {
	var req service.PageRequest
	err := echo.QueryParamsBinder(c).
		Int("page", &req.Page).
		Int("page_size", &req.PageSize).
		BindError()
	if err != nil {
		field := "page"
		var berr *echo.BindingError
		if errors.As(err, &berr) {
			field = berr.Field
		}
		return req, apperror.New(apperror.CodeValidation, "Invalid input.").
			WithField(field, "A valid integer is required.")
	}
	return req, nil
}

// optionalID parses an optional numeric query parameter
func optionalID(c echo.Context, name string) (*uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, apperror.New(apperror.CodeValidation, "Invalid input.").
			WithField(name, "A valid integer is required.")
	}
	v := uint(id)
	return &v, nil
}
