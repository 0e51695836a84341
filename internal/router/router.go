package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coursehub-auth/internal/handler"
	"github.com/iliyamo/coursehub-auth/internal/middleware"
	"github.com/iliyamo/coursehub-auth/internal/model"
)

// AdminRole may deactivate accounts.
const AdminRole = model.AdminRole

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc, metrics http.Handler) {
	e.GET("/healthz", health)
	e.GET("/metrics", echo.WrapHandler(metrics))
}

// RegisterAuth registers the session endpoints under /v1/auth and the
// bearer-protected account endpoints under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, acc *handler.AccountHandler, verifier middleware.TokenVerifier) {
	// Register, login and refresh are how a client obtains tokens, so none
	// of them take a bearer.  Logout only needs the refresh token it revokes.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(verifier))
	auth.GET("/me", acc.Me)
	auth.PATCH("/me", acc.UpdateMe)

	admin := auth.Group("/admin", middleware.RequireRole(AdminRole))
	admin.POST("/accounts/:id/deactivate", acc.Deactivate)
}
