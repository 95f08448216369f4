package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/tuanngo/car-rental-api/internal/handler"
	"github.com/tuanngo/car-rental-api/internal/middleware"
)

// RegisterCustomer registers the booking endpoints under /v1.  All
// routes require a valid JWT; both roles may book (an owner renting
// another owner's car is an ordinary customer of that car).
func RegisterCustomer(e *echo.Echo, r *handler.RentalHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER", "OWNER"),
	)

	g.POST("/rentals", r.Create)
	g.DELETE("/rentals/:id", r.Cancel)
	g.GET("/my-rentals", r.ListMine)
}
