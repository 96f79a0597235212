package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"":      zapcore.InfoLevel,
		"loud":  zapcore.InfoLevel,
	}
	for name, want := range tests {
		if got := ParseLevel(name); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected a usable logger without initialization")
	}

	l := zap.NewNop()
	ctx := WithContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Fatal("expected logger stored in context")
	}
}

func TestMiddlewareLogsFinalStatus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := log
	SetLogger(zap.New(core))
	t.Cleanup(func() { log = prev })

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/products/7", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := Middleware()(func(c echo.Context) error {
		if FromEcho(c) == GetLogger() {
			t.Error("expected request scoped logger")
		}
		return echo.NewHTTPError(http.StatusNotFound, "missing")
	})
	if err := h(c); err != nil && !errors.Is(err, echo.ErrNotFound) {
		t.Fatalf("middleware returned %v", err)
	}

	entries := logs.FilterMessage("HTTP Request").All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusNotFound) {
		t.Fatalf("status = %v, want 404", fields["status"])
	}
	if fields["request_id"] != "req-1" {
		t.Fatalf("request_id = %v, want req-1", fields["request_id"])
	}
}
