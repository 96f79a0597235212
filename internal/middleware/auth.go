package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/shopstock/internal/actor"
	"github.com/suteetoe/shopstock/pkg/apperror"
	"github.com/suteetoe/shopstock/pkg/jwtutil"
	"github.com/suteetoe/shopstock/pkg/logger"
	"github.com/suteetoe/shopstock/prometheus"
	"go.uber.org/zap"
)

// ActorResolver loads the current shop and staff flags of an account
type ActorResolver interface {
	ResolveActor(ctx context.Context, accountID uint) (actor.Actor, error)
}

// Auth validates bearer tokens and attaches the calling actor
type Auth struct {
	jwt      *jwtutil.JWTUtil
	resolver ActorResolver
}

// NewAuth creates the authentication middleware
func NewAuth(jwt *jwtutil.JWTUtil, resolver ActorResolver) *Auth {
	return &Auth{jwt: jwt, resolver: resolver}
}

// Middleware validates the JWT token and resolves the actor from the account
// row, so shop changes take effect without a new token.
func (m *Auth) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.RecordAuthAttempt("missing_token")
			return apperror.New(apperror.CodeUnauthorized, "Missing authorization token.")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			prometheus.RecordAuthAttempt("malformed_header")
			return apperror.New(apperror.CodeUnauthorized, "Invalid authorization format, expected Bearer token.")
		}

		claims, err := m.jwt.ValidateToken(parts[1])
		if err != nil {
			log.Warn("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthAttempt("invalid_token")
			return apperror.New(apperror.CodeUnauthorized, "Invalid or expired token.")
		}

		a, err := m.resolver.ResolveActor(c.Request().Context(), claims.UserID)
		if err != nil {
			log.Warn("Token account rejected", zap.Uint("user_id", claims.UserID), zap.Error(err))
			prometheus.RecordAuthAttempt("account_rejected")
			return err
		}
		prometheus.RecordAuthAttempt("success")

		fields := []zap.Field{zap.Uint("user_id", a.AccountID), zap.Bool("is_staff", a.IsStaff)}
		if a.HasTenant() {
			fields = append(fields, zap.Uint("shop_id", *a.TenantID))
		} else if !a.IsStaff {
			prometheus.RecordTenantContextMissing()
		}
		reqLog := log.With(fields...)
		logger.SetEcho(c, reqLog)

		c.SetRequest(c.Request().WithContext(actor.WithContext(c.Request().Context(), a)))

		return next(c)
	}
}
