package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tuanngo/car-rental-api/internal/repository"
)

// PublicHandler exposes unauthenticated browse endpoints returning
// sanitized data for vehicles, branches and booked dates.  Guests use
// these to pick a car and a window before registering.
type PublicHandler struct {
	Vehicles  *repository.VehicleRepo
	Branches  *repository.BranchRepo
	Intervals *repository.IntervalRepo
	Prices    *repository.PriceRepo
}

func NewPublicHandler(vehicles *repository.VehicleRepo, branches *repository.BranchRepo, intervals *repository.IntervalRepo, prices *repository.PriceRepo) *PublicHandler {
	if vehicles == nil || branches == nil || intervals == nil || prices == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Vehicles: vehicles, Branches: branches, Intervals: intervals, Prices: prices}
}

// ListVehicles handles GET /v1/vehicles.  Only vehicles whose current
// interval is AVAILABLE right now are listed.
func (h *PublicHandler) ListVehicles(c echo.Context) error {
	items, err := h.Vehicles.ListAvailableNow(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load vehicles"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetVehicle handles GET /v1/vehicles/:id.  The live status is
// projected from the interval containing now; a vehicle with no
// current interval reports UNKNOWN.
func (h *PublicHandler) GetVehicle(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle id"})
	}
	ctx := c.Request().Context()
	v, err := h.Vehicles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	resp := echo.Map{
		"id":           v.ID,
		"model_id":     v.ModelID,
		"plate_number": v.PlateNumber,
		"seats":        v.Seats,
		"status":       "UNKNOWN",
	}
	cur, err := h.Intervals.Current(ctx, id, time.Now().UTC())
	switch {
	case err == nil:
		resp["status"] = cur.Status.String()
		resp["branch_id"] = cur.BranchID
	case errors.Is(err, sql.ErrNoRows):
		// no interval covers now; UNKNOWN stands
	case errors.Is(err, repository.ErrInvariant):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "inconsistent vehicle timeline"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if q, err := h.Prices.Current(ctx, id); err == nil {
		resp["daily_rate_cents"] = q.DailyRateCents
	}
	return c.JSON(http.StatusOK, resp)
}

// BookedDates handles GET /v1/vehicles/:id/booked-dates.  It returns
// every RENTED window on the vehicle's timeline, including an
// open-ended one when a rental is running right now, so calendars
// agree with the booking conflict check.
func (h *PublicHandler) BookedDates(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle id"})
	}
	windows, err := h.Intervals.BookedWindows(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booked dates"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": windows})
}

// GetBranch handles GET /v1/branches/:id for pickup location display.
func (h *PublicHandler) GetBranch(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid branch id"})
	}
	b, err := h.Branches.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "branch not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":      b.ID,
		"name":    b.Name,
		"address": b.Address,
		"lat":     b.Lat,
		"lng":     b.Lng,
	})
}

// PriceHistory handles GET /v1/vehicles/:id/prices, the append-only
// price history newest first.
func (h *PublicHandler) PriceHistory(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle id"})
	}
	history, err := h.Prices.History(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load price history"})
	}
	items := make([]echo.Map, 0, len(history))
	for _, q := range history {
		items = append(items, echo.Map{
			"id":               q.ID,
			"branch_id":        q.BranchID,
			"daily_rate_cents": q.DailyRateCents,
			"effective_at":     q.EffectiveAt,
			"retired_at":       q.RetiredAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
