package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/3d-marketplace/auth-api/internal/core/domain"
	"github.com/3d-marketplace/auth-api/internal/core/ports"
)

const (
	claimsKey = "claims"
	tokenKey  = "token"
)

// Auth validates the bearer token and injects its claims and the raw token
// into the context. The user store is not consulted.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrMissingToken.Error())
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrMissingToken.Error())
			}
			token := strings.TrimSpace(parts[1])

			claims, err := verifier.Verify(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusForbidden, domain.ErrInvalidToken.Error())
			}

			c.Set(claimsKey, claims)
			c.Set(tokenKey, token)

			return next(c)
		}
	}
}

// Claims returns the identity set by Auth.
func Claims(c echo.Context) (*domain.Claims, bool) {
	claims, ok := c.Get(claimsKey).(*domain.Claims)
	return claims, ok && claims != nil
}

// Token returns the raw bearer token set by Auth.
func Token(c echo.Context) string {
	token, _ := c.Get(tokenKey).(string)
	return token
}
