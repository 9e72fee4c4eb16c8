package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/complaint_desk/internal/auth"
	"github.com/Skotchmaster/complaint_desk/pkg/logging"
)

type AuthHandler struct {
	Svc *auth.Service
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req auth.RegisterInput
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, "username, national id or email already registered")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
		}
	}

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
	})
}

// Logout revokes the bearer token of the request, if any. It always
// acknowledges unless the store is down.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	token := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if err := h.Svc.Logout(ctx, token); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out",
	})
}
