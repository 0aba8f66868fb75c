package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/dewhitt/dashboard-api/internal/handler"
)

// RegisterRoutes registers routes that need no authentication and no rate
// limit.  db may be nil, in which case /healthz only reports liveness.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers registration, verification and login.  Each route
// is mounted at both /api/auth/... and, for register and login, at the
// legacy root paths the first web client used.  limit guards every one of
// them.
func RegisterAuth(e *echo.Echo, h *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/api/auth", limit)
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/verify-email", h.VerifyEmail)

	e.POST("/register", h.Register, limit)
	e.POST("/login", h.Login, limit)
}

// RegisterBilling registers the billing provider webhook.  Callers skip it
// when no signing secret is configured.
func RegisterBilling(e *echo.Echo, h *handler.BillingHandler) {
	e.POST("/api/billing/webhook", h.Webhook)
}
