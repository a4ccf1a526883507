package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/haitebooks/bookstore-api/internal/core/ports"
)

// UserHandler serves the caller's profile and the admin account endpoints.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Me returns the authenticated caller's profile.
//
// @Summary      Current user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	u, err := h.users.Profile(c.Request().Context(), p.Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(u))
}

// UpdateRoles replaces a user's role set.
//
// @Summary      Replace user roles
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string              true  "Username"
// @Param        body      body      updateRolesRequest  true  "New role set"
// @Success      200       {object}  messageResponse
// @Failure      400       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /api/admin/users/{username}/roles [put]
func (h *UserHandler) UpdateRoles(c echo.Context) error {
	var req updateRolesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.users.UpdateRoles(c.Request().Context(), c.Param("username"), req.Roles); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "roles updated"})
}

// SetEnabled enables or disables an account.
//
// @Summary      Enable or disable a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string             true  "Username"
// @Param        body      body      setEnabledRequest  true  "Account status"
// @Success      200       {object}  messageResponse
// @Failure      400       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /api/admin/users/{username}/enabled [put]
func (h *UserHandler) SetEnabled(c echo.Context) error {
	var req setEnabledRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.users.SetEnabled(c.Request().Context(), c.Param("username"), *req.Enabled); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "account updated"})
}
