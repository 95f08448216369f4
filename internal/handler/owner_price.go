package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tuanngo/car-rental-api/internal/model"
)

type publishPriceReq struct {
	BranchID       uint64 `json:"branch_id"`
	DailyRateCents uint32 `json:"daily_rate_cents"`
}

// PublishPrice handles POST /v1/owner/vehicles/:id/prices.  The price
// history is append-only: the current quote is retired and a new one
// inserted, so contracts keep pointing at the rate they were signed
// under.
func (h *OwnerHandler) PublishPrice(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	vehicleID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle id"})
	}
	var req publishPriceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.BranchID == 0 || req.DailyRateCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "branch_id and daily_rate_cents are required"})
	}

	ctx := c.Request().Context()
	if !h.ownsVehicle(ctx, ownerID, vehicleID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if !h.ownsBranch(ctx, ownerID, req.BranchID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "branch does not belong to you"})
	}

	q := model.PriceQuote{
		VehicleID:      vehicleID,
		BranchID:       req.BranchID,
		DailyRateCents: req.DailyRateCents,
	}
	if err := h.Prices.Publish(ctx, &q); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "publish price failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": q.ID})
}
