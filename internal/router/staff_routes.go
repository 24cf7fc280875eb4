package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-guest-registration/internal/handler"
	"github.com/iliyamo/event-guest-registration/internal/middleware"
	"github.com/iliyamo/event-guest-registration/internal/model"
)

// RegisterStaff registers the endpoints shared by staff and admins:
// browsing registrations, removing groups or individual companions, the
// door check-in scan and the statistics aggregate. All routes require a
// valid JWT with the STAFF or ADMIN role.
func RegisterStaff(e *echo.Echo, h *handler.RegistrationHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleStaff),
	)
	g.GET("/registrations", h.List)
	g.GET("/registrations/:id", h.Get)
	g.DELETE("/registrations/:id", h.DeleteGroup)
	g.DELETE("/companions/:id", h.DeleteCompanion)
	g.POST("/checkin", h.CheckIn)
	g.GET("/stats", h.Stats, cache)
}
