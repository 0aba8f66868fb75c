package router

import (
	"github.com/labstack/echo/v4"

	"github.com/dewhitt/dashboard-api/internal/handler"
)

// MemberHandlers groups the handlers for a signed-in user's own data.
type MemberHandlers struct {
	Users    *handler.UserHandler
	Goals    *handler.GoalHandler
	Logs     *handler.LogHandler
	Projects *handler.ProjectHandler
}

// RegisterMember registers the routes every authenticated user may call.
// auth is the JWTAuth middleware; ownership is enforced in the store
// queries, not here.
func RegisterMember(e *echo.Echo, h MemberHandlers, auth echo.MiddlewareFunc) {
	g := e.Group("/api", auth)

	// ---- Profile ----
	g.GET("/user/profile", h.Users.GetProfile)
	g.PUT("/user/profile", h.Users.UpdateProfile)
	g.PUT("/user/setup-profile/:id", h.Users.SetupProfile)

	// ---- Goals ----
	g.POST("/goals", h.Goals.Create)
	g.GET("/goals", h.Goals.List)
	g.PUT("/goals/:id", h.Goals.Update)
	g.DELETE("/goals/:id", h.Goals.Delete)

	// ---- Exercise logs ----
	g.POST("/logs", h.Logs.Create)
	g.GET("/logs", h.Logs.List)
	g.PUT("/logs/:id", h.Logs.Update)
	g.DELETE("/logs/:id", h.Logs.Delete)

	// ---- Dashboard ----
	g.GET("/project", h.Projects.Mine)
}
