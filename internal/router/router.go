package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-guest-registration/internal/handler"
)

// RegisterPublic registers the unauthenticated endpoints under /v1: the
// health check, the polled remaining-slot and distributor reads, and the
// registration submission itself. The caller supplies the cache and rate
// limit middlewares already configured; either may be a pass-through.
func RegisterPublic(e *echo.Echo, h *handler.RegistrationHandler, cache, limiter echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)

	g := e.Group("/v1")
	g.GET("/slots", h.RemainingSlots, cache)
	g.GET("/distributors", h.ListDistributors, cache)
	// Submissions are rate limited; the duplicate-ticket guarantee lives in
	// the database transaction, the limiter only blunts floods.
	g.POST("/registrations", h.Register, limiter)
}

// RegisterAuth registers the token endpoints. Login and refresh are
// public; logout needs a valid access token to know whose sessions to
// revoke.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtAuth echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, jwtAuth)
}
