package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // the Echo web framework handles routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/user-account-service/internal/config"
	"github.com/iliyamo/user-account-service/internal/handler"
	"github.com/iliyamo/user-account-service/internal/middleware"
	"github.com/iliyamo/user-account-service/internal/token"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check, used by
// load balancers and monitoring systems to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the session endpoints.  Credential-bearing
// operations (register, login, refresh) live under /v1/auth behind the
// Redis token-bucket limiter; logout and change-password additionally
// require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, issuer *token.Issuer, store middleware.PrincipalResolver, rdb *redis.Client) {
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	g := e.Group("/v1/auth")
	g.Use(limiter)
	// Registration accepts a multipart form: account fields plus the avatar file.
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the stored refresh token; the superseded value is dead
	// the moment this returns.
	g.POST("/refresh-token", a.Refresh)

	gate := middleware.Authenticate(a.Cfg, issuer, store)
	g.POST("/logout", a.Logout, gate)
	g.POST("/change-password", a.ChangePassword, gate)
}

// RegisterUsers registers the profile endpoints.  Everything under
// /v1/users requires a valid access token; the auth gate resolves and
// attaches the sanitized principal before any handler runs.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, cfg config.Config, issuer *token.Issuer, store middleware.PrincipalResolver) {
	g := e.Group("/v1/users")
	g.Use(middleware.Authenticate(cfg, issuer, store))
	g.Use(middleware.RequireRole("admin", "employee", "hr"))
	g.GET("/me", u.Me)
	g.PATCH("/me", u.UpdateAccount)
	g.PATCH("/me/avatar", u.UpdateAvatar)
}

// RegisterPublic registers the unauthenticated profile lookup.  The route
// sits behind the Redis response cache since the payload is already
// sanitized and identical for every caller.
func RegisterPublic(e *echo.Echo, u *handler.UserHandler, rdb *redis.Client) {
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	e.GET("/v1/profiles/:username", u.Profile, cache)
}
