package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/3d-marketplace/auth-api/internal/core/ports"
)

// ProfileHandler serves the caller's own account.
type ProfileHandler struct {
	accounts ports.AccountService
}

func NewProfileHandler(accounts ports.AccountService) *ProfileHandler {
	return &ProfileHandler{accounts: accounts}
}

// Get handles GET /api/profile.
//
// @Summary      Get own profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	user, err := h.accounts.Profile(c.Request().Context(), claims.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profileResponse{Success: true, User: toProfileUser(user)})
}

// Update handles PUT /api/profile. Only fullName, phone, address and
// preferences are applied; anything else in the body is ignored.
//
// @Summary      Update own profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  updateProfileResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/profile [put]
func (h *ProfileHandler) Update(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.accounts.UpdateProfile(c.Request().Context(), claims.ID, ports.ProfileUpdate{
		FullName:    req.FullName,
		Phone:       req.Phone,
		Address:     req.Address,
		Preferences: req.Preferences,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updateProfileResponse{
		Success: true,
		Message: "profile updated successfully",
		User:    toUpdatedProfileUser(user),
	})
}
