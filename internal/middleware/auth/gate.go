package auth

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/complaint_desk/internal/auth"
	"github.com/Skotchmaster/complaint_desk/pkg/logging"
)

type TokenValidator interface {
	Validate(ctx context.Context, raw string) (*auth.Identity, error)
}

type storeFailureKey struct{}

// Gate resolves the bearer token of every request. It never writes a
// response: on any failure the request simply continues anonymous and the
// access policy decides.
func Gate(v TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if raw == "" {
				return next(c)
			}

			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("mw", "auth.gate")

			id, err := v.Validate(ctx, raw)
			if err != nil {
				if errors.Is(err, auth.ErrStoreUnavailable) {
					l.Error("token validation failed", "reason", auth.Reason(err), "error", err)
					ctx = context.WithValue(ctx, storeFailureKey{}, true)
					c.SetRequest(c.Request().WithContext(ctx))
				} else {
					l.Info("token rejected", "reason", auth.Reason(err))
				}
				return next(c)
			}

			l = l.With("user_id", id.UserID, "role", id.Role)
			ctx = auth.WithIdentity(ctx, *id)
			ctx = logging.IntoContext(ctx, logging.FromContext(ctx).With("user_id", id.UserID))
			c.SetRequest(c.Request().WithContext(ctx))
			l.Debug("token accepted")
			return next(c)
		}
	}
}

func storeFailed(ctx context.Context) bool {
	v, _ := ctx.Value(storeFailureKey{}).(bool)
	return v
}
