package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/3d-marketplace/auth-api/internal/api/middleware"
	"github.com/3d-marketplace/auth-api/internal/core/domain"
)

// ctxClaims returns the identity injected by the Auth middleware. A route
// registered without Auth fails closed with ErrMissingToken.
func ctxClaims(c echo.Context) (*domain.Claims, error) {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil, domain.ErrMissingToken
	}
	return claims, nil
}

// bindAndValidate decodes the JSON body into req and runs struct validation.
// Both failures surface as 400s.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.NewValidationError("invalid payload")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	if err := c.Validate(req); err != nil {
		return domain.NewValidationError(err.Error())
	}
	return nil
}
