package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/tuanngo/car-rental-api/internal/handler"
	"github.com/tuanngo/car-rental-api/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance.  Currently it exposes only a health
// check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts a refresh_token body or a bearer token; it does
	// not require the JWT middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("OWNER", "CUSTOMER"))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated browse endpoints.  Guests
// can inspect the fleet, branch details, price history and booked
// dates before creating an account.  The optional middleware (the
// response cache) applies to these routes only; per-user endpoints
// must never share cached bodies.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)
	// Vehicles whose current interval is AVAILABLE right now.
	g.GET("/vehicles", p.ListVehicles)
	// Vehicle detail with the live status projection.
	g.GET("/vehicles/:id", p.GetVehicle)
	// RENTED windows for the booking calendar, open-ended ones included.
	g.GET("/vehicles/:id/booked-dates", p.BookedDates)
	// Append-only price history, newest first.
	g.GET("/vehicles/:id/prices", p.PriceHistory)
	// Pickup location display.
	g.GET("/branches/:id", p.GetBranch)
}
