package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/shopstock/pkg/apperror"
	"github.com/suteetoe/shopstock/pkg/logger"
	"go.uber.org/zap"
)

// ErrorDetail is the error object returned to clients
type ErrorDetail struct {
	Code      apperror.Code        `json:"code"`
	Message   string               `json:"message"`
	Fields    apperror.FieldErrors `json:"fields,omitempty"`
	Retryable bool                 `json:"retryable"`
}

// ErrorResponse wraps ErrorDetail as {"error": {...}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorHandler renders every error returned by a handler or middleware
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, detail := describe(err)
	if detail.Code == apperror.CodeInternal {
		logger.FromEcho(c).Error("Request failed", zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, ErrorResponse{Error: detail})
	}
	if err != nil {
		logger.FromEcho(c).Error("Failed to write error response", zap.Error(err))
	}
}

func describe(err error) (int, ErrorDetail) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			message := http.StatusText(httpErr.Code)
			if m, ok := httpErr.Message.(string); ok && m != "" {
				message = m
			}
			return httpErr.Code, ErrorDetail{Code: codeForStatus(httpErr.Code), Message: message}
		}
		appErr = apperror.Internal(err)
	}

	detail := ErrorDetail{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Fields:    appErr.Fields,
		Retryable: appErr.Code.Retryable(),
	}
	if appErr.Code == apperror.CodeInternal {
		detail.Message = "An unexpected error occurred."
	}
	return appErr.Code.HTTPStatus(), detail
}

// codeForStatus names framework errors such as unknown routes
func codeForStatus(status int) apperror.Code {
	switch status {
	case http.StatusBadRequest:
		return apperror.CodeValidation
	case http.StatusUnauthorized:
		return apperror.CodeUnauthorized
	case http.StatusForbidden:
		return apperror.CodeForbidden
	case http.StatusNotFound:
		return apperror.CodeNotFound
	}
	if status >= http.StatusInternalServerError {
		return apperror.CodeInternal
	}
	return apperror.Code(strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_")))
}
