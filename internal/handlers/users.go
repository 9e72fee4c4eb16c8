package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/complaint_desk/internal/auth"
	"github.com/Skotchmaster/complaint_desk/internal/events"
	"github.com/Skotchmaster/complaint_desk/internal/hash"
	"github.com/Skotchmaster/complaint_desk/internal/models"
	"github.com/Skotchmaster/complaint_desk/internal/repo"
	"github.com/Skotchmaster/complaint_desk/internal/util"
	"github.com/Skotchmaster/complaint_desk/pkg/logging"
)

type UserStore interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	List(ctx context.Context, onlyEnabled bool, from, limit int) ([]models.User, int64, error)
	UpdateProfile(ctx context.Context, id uint, p repo.ProfileUpdate) error
	SetEnabled(ctx context.Context, id uint, enabled bool) error
}

type SessionStore interface {
	ListActiveForUser(ctx context.Context, userID uint, now time.Time) ([]models.Token, error)
}

type UserHandler struct {
	Users    UserStore
	Sessions SessionStore
	Revoker  *auth.Revoker
	Hasher   hash.Hasher
	Events   events.Publisher

	// RevokeOnDisable also revokes every session of an account that gets
	// disabled.
	RevokeOnDisable bool
}

type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

func (h *UserHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.Users.FindByID(ctx, id.UserID)
	if err != nil {
		return storeError(ctx, "users_me", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_update")
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	upd := repo.ProfileUpdate{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
	}
	if upd.Email != "" {
		if _, err := mail.ParseAddress(upd.Email); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "email is invalid")
		}
	}
	if req.Password != "" {
		if len(req.Password) < 8 {
			return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
		}
		pwHash, err := h.Hasher.Hash(req.Password)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
		}
		upd.PasswordHash = pwHash
	}

	if err := h.Users.UpdateProfile(ctx, id.UserID, upd); err != nil {
		return storeError(ctx, "users_update", err)
	}

	user, err := h.Users.FindByID(ctx, id.UserID)
	if err != nil {
		return storeError(ctx, "users_update", err)
	}
	l.Info("profile updated", "user_id", id.UserID)
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DisableMe(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	if err := h.setEnabled(c.Request().Context(), id.UserID, false, id.Username); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "account disabled"})
}

func (h *UserHandler) ListEnabled(c echo.Context) error {
	return h.list(c, true)
}

func (h *UserHandler) ListAll(c echo.Context) error {
	return h.list(c, false)
}

func (h *UserHandler) list(c echo.Context, onlyEnabled bool) error {
	ctx := c.Request().Context()
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	w := util.Paginate(page, size)

	users, total, err := h.Users.List(ctx, onlyEnabled, w.Offset, w.Size)
	if err != nil {
		return storeError(ctx, "users_list", err)
	}
	return c.JSON(http.StatusOK, Page[models.User]{
		Items: users,
		Total: total,
		Page:  w.Page,
		Size:  w.Size,
	})
}

func (h *UserHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := pathID(c)
	if err != nil {
		return err
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		return storeError(ctx, "users_get", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Enable(c echo.Context) error {
	return h.adminSetEnabled(c, true)
}

func (h *UserHandler) Disable(c echo.Context) error {
	return h.adminSetEnabled(c, false)
}

func (h *UserHandler) adminSetEnabled(c echo.Context, enabled bool) error {
	ctx := c.Request().Context()
	userID, err := pathID(c)
	if err != nil {
		return err
	}
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}

	if err := h.setEnabled(ctx, userID, enabled, actor.Username); err != nil {
		return err
	}
	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		return storeError(ctx, "users_set_enabled", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) setEnabled(ctx context.Context, userID uint, enabled bool, actor string) error {
	l := logging.FromContext(ctx).With("handler", "users_set_enabled", "user_id", userID, "enabled", enabled)

	if err := h.Users.SetEnabled(ctx, userID, enabled); err != nil {
		return storeError(ctx, "users_set_enabled", err)
	}

	ev := events.Event{Type: events.UserEnabled, UserID: userID, Actor: actor}
	if !enabled {
		ev.Type = events.UserDisabled
		if h.RevokeOnDisable {
			n, err := h.Revoker.RevokeAll(ctx, userID)
			if err != nil {
				l.Error("revoke on disable failed", "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
			}
			l.Info("sessions revoked on disable", "count", n)
		}
	}
	events.Emit(ctx, h.Events, ev)
	l.Info("account status changed", "actor", actor)
	return nil
}

func (h *UserHandler) ListSessions(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := pathID(c)
	if err != nil {
		return err
	}
	if _, err := h.Users.FindByID(ctx, userID); err != nil {
		return storeError(ctx, "users_sessions", err)
	}

	sessions, err := h.Sessions.ListActiveForUser(ctx, userID, time.Now().UTC())
	if err != nil {
		return storeError(ctx, "users_sessions", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": sessions})
}

func (h *UserHandler) RevokeSessions(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_revoke_sessions")
	userID, err := pathID(c)
	if err != nil {
		return err
	}
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	if _, err := h.Users.FindByID(ctx, userID); err != nil {
		return storeError(ctx, "users_revoke_sessions", err)
	}

	n, err := h.Revoker.RevokeAll(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}

	events.Emit(ctx, h.Events, events.Event{Type: events.SessionsRevoked, UserID: userID, Actor: actor.Username})
	l.Info("sessions revoked", "user_id", userID, "count", n)
	return c.JSON(http.StatusOK, echo.Map{"revoked": n})
}

func currentIdentity(c echo.Context) (auth.Identity, error) {
	id, ok := auth.IdentityFrom(c.Request().Context())
	if !ok {
		return auth.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return id, nil
}

func pathID(c echo.Context) (uint, error) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(n), nil
}

func storeError(ctx context.Context, handler string, err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, repo.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "username or email already in use")
	default:
		logging.FromContext(ctx).Error("store error", "handler", handler, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
