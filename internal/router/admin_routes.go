package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-guest-registration/internal/handler"
	"github.com/iliyamo/event-guest-registration/internal/middleware"
	"github.com/iliyamo/event-guest-registration/internal/model"
)

// RegisterAdmin registers the configuration and maintenance endpoints
// under /v1/admin. All routes require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Distributors ----
	g.POST("/distributors", a.CreateDistributor)
	g.DELETE("/distributors/:id", a.DeleteDistributor)

	// ---- Maintenance ----
	g.POST("/counter/rebuild", a.RebuildCounter)
	g.POST("/claims/cleanup", a.CleanupClaims)

	// ---- Backup and restore ----
	g.GET("/export", a.Export)
	g.POST("/import", a.Import)
	g.POST("/reset", a.Reset)
}
