package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/tuanngo/car-rental-api/internal/handler"    // owner handlers
	"github.com/tuanngo/car-rental-api/internal/middleware" // JWT + role middlewares
)

// RegisterOwner registers OWNER-scoped endpoints under /v1/owner.
// All routes require a valid JWT and OWNER role.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1/owner",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OWNER"),
	)

	// ---- Branches ----
	g.POST("/branches", o.CreateBranch)
	g.GET("/branches", o.ListBranches)

	// ---- Fleet ----
	g.POST("/vehicles", o.CreateVehicle)
	g.GET("/vehicles", o.ListVehicles)
	g.GET("/vehicles/:id/schedule", o.Schedule)
	g.PATCH("/vehicles/:id/status", o.ChangeStatus)

	// ---- Pricing ----
	g.POST("/vehicles/:id/prices", o.PublishPrice)
}
