package router

import (
	"github.com/labstack/echo/v4"

	"github.com/dewhitt/dashboard-api/internal/handler"
	"github.com/dewhitt/dashboard-api/internal/middleware"
	"github.com/dewhitt/dashboard-api/internal/model"
)

// RegisterAdmin registers admin endpoints under /api/admin.  All routes
// require a valid token and the Admin role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, auth echo.MiddlewareFunc) {
	g := e.Group(
		"/api/admin",
		auth,
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/clients", h.ListClients)
	g.PUT("/project/:userId", h.UpsertProject)
	g.DELETE("/users/:id", h.DeleteUser)
}
