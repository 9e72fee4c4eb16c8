package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/complaint_desk/internal/auth"
	"github.com/Skotchmaster/complaint_desk/internal/config"
	"github.com/Skotchmaster/complaint_desk/internal/handlers"
	authmw "github.com/Skotchmaster/complaint_desk/internal/middleware/auth"
	"github.com/Skotchmaster/complaint_desk/internal/middleware/ratelimit"
	"github.com/Skotchmaster/complaint_desk/internal/policy"
)

type Deps struct {
	Validator *auth.Validator
	Policy    *policy.Policy

	AuthHandler   *handlers.AuthHandler
	UserHandler   *handlers.UserHandler
	AuditHandler  *handlers.AuditHandler
	HealthHandler *handlers.HealthHandler

	RateLimit config.RateLimit
	Redis     *redis.Client
}

// Register installs the error handler, the authentication gate, the access
// policy and every route. Path scoping lives in the policy table, not in
// route groups.
func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = handlers.ErrorHandler

	p := d.Policy
	if p == nil {
		p = policy.Default()
	}
	e.Use(authmw.Gate(d.Validator))
	e.Use(authmw.RequireAccess(p))

	e.GET("/health/live", d.HealthHandler.Live)
	e.GET("/health/ready", d.HealthHandler.Ready)

	e.POST("/auth/register", d.AuthHandler.Register)
	e.POST("/auth/login", d.AuthHandler.Login, ratelimit.TokenBucket(d.RateLimit, d.Redis))
	e.POST("/auth/logout", d.AuthHandler.Logout)

	e.GET("/api/enum/roles", handlers.Roles)

	users := e.Group("/api/users")
	users.GET("", d.UserHandler.Me)
	users.PUT("", d.UserHandler.UpdateMe)
	users.DELETE("", d.UserHandler.DisableMe)

	mod := users.Group("/mod")
	mod.GET("", d.UserHandler.ListEnabled)
	mod.GET("/:id", d.UserHandler.Get)

	admin := users.Group("/admin")
	admin.GET("", d.UserHandler.ListAll)
	admin.PUT("/:id", d.UserHandler.Enable)
	admin.DELETE("/:id", d.UserHandler.Disable)
	admin.GET("/:id/sessions", d.UserHandler.ListSessions)
	admin.POST("/:id/revoke", d.UserHandler.RevokeSessions)

	e.GET("/api/admin/audit", d.AuditHandler.Search)
}
