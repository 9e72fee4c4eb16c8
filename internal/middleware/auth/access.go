package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/complaint_desk/internal/auth"
	"github.com/Skotchmaster/complaint_desk/internal/policy"
	"github.com/Skotchmaster/complaint_desk/internal/roles"
	"github.com/Skotchmaster/complaint_desk/pkg/logging"
)

// RequireAccess enforces p after Gate has run. The policy sees the same
// path the router dispatches on.
func RequireAccess(p *policy.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()
			l := logging.FromContext(ctx).With("mw", "auth.access")

			if !policy.Canonical(req.URL.Path) {
				l.Warn("access denied", "reason", "malformed_path", "path", req.URL.Path)
				return echo.NewHTTPError(http.StatusBadRequest, "malformed request path")
			}

			var role *roles.Role
			if id, ok := auth.IdentityFrom(ctx); ok {
				r := id.Role
				role = &r
			}

			outcome, rule := p.Evaluate(echo.GetPath(req), role)
			switch outcome {
			case policy.Allowed:
				return next(c)
			case policy.Unauthenticated:
				if storeFailed(ctx) {
					return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").
						SetInternal(auth.ErrStoreUnavailable)
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			default:
				pattern := ""
				if rule != nil {
					pattern = rule.Pattern
				}
				l.Warn("access denied", "reason", "insufficient_role", "role", *role, "pattern", pattern)
				return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights to access this resource").
					SetInternal(policy.ErrInsufficientRole)
			}
		}
	}
}
