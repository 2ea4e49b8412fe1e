package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/3d-marketplace/auth-api/internal/core/ports"
)

type AdminHandler struct {
	accounts ports.AccountService
}

func NewAdminHandler(accounts ports.AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

// ListUsers handles GET /api/admin/users.
//
// @Summary      List all users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listUsersResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	users, err := h.accounts.ListUsers(c.Request().Context(), claims.Role)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listUsersResponse{
		Success: true,
		Users:   toAdminUsers(users),
		Total:   len(users),
	})
}
