package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coursehub-auth/internal/middleware"
	"github.com/iliyamo/coursehub-auth/internal/service"
)

// AccountHandler serves the authenticated account endpoints.
type AccountHandler struct {
	Accounts *service.AccountService
}

func NewAccountHandler(s *service.AccountService) *AccountHandler {
	return &AccountHandler{Accounts: s}
}

type updateMeReq struct {
	FullName        *string  `json:"full_name"`
	TargetBand      *float64 `json:"target_band"`
	ClearTargetBand bool     `json:"clear_target_band"`
}

// Me returns the caller's profile.
func (h *AccountHandler) Me(c echo.Context) error {
	id, ok := middleware.AccountID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	a, err := h.Accounts.Profile(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserPart(a))
}

// UpdateMe changes the caller's display name or target band.
func (h *AccountHandler) UpdateMe(c echo.Context) error {
	id, ok := middleware.AccountID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateMeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	a, err := h.Accounts.UpdateProfile(ctx, id, service.ProfileUpdate{
		FullName:        req.FullName,
		TargetBand:      req.TargetBand,
		ClearTargetBand: req.ClearTargetBand,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserPart(a))
}

// Deactivate soft-deletes the account named by the :id path parameter.
// Routed behind RequireRole("Admin").
func (h *AccountHandler) Deactivate(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Accounts.Deactivate(ctx, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
