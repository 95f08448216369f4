package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tuanngo/car-rental-api/internal/booking"
	"github.com/tuanngo/car-rental-api/internal/model"
	"github.com/tuanngo/car-rental-api/internal/repository"
)

type createVehicleReq struct {
	ModelID     uint64 `json:"model_id"`
	PlateNumber string `json:"plate_number"`
	Seats       uint8  `json:"seats"`
	BranchID    uint64 `json:"branch_id"`
}

// CreateVehicle handles POST /v1/owner/vehicles.  The vehicle row and
// its opening open-ended AVAILABLE interval are written in one
// transaction, so a vehicle never exists without a timeline.
func (h *OwnerHandler) CreateVehicle(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createVehicleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.PlateNumber = strings.ToUpper(strings.TrimSpace(req.PlateNumber))
	if req.PlateNumber == "" || req.BranchID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "plate_number and branch_id are required"})
	}

	ctx := c.Request().Context()
	if !h.ownsBranch(ctx, ownerID, req.BranchID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "branch does not belong to you"})
	}

	tx, err := h.Vehicles.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	v := model.Vehicle{
		OwnerID:     ownerID,
		ModelID:     req.ModelID,
		PlateNumber: req.PlateNumber,
		Seats:       req.Seats,
	}
	if err := h.Vehicles.CreateTx(ctx, tx, &v); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "plate number already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create vehicle failed"})
	}
	opening := model.OccupancyInterval{
		VehicleID: v.ID,
		Status:    model.StatusAvailable,
		BranchID:  req.BranchID,
		StartsAt:  time.Now().UTC(),
	}
	if err := h.Intervals.InsertTx(ctx, tx, &opening); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create vehicle failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{"id": v.ID})
}

// ListVehicles handles GET /v1/owner/vehicles, with the live status
// projection for each vehicle.
func (h *OwnerHandler) ListVehicles(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Vehicles.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load vehicles"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Schedule handles GET /v1/owner/vehicles/:id/schedule, the full
// interval timeline for one vehicle.
func (h *OwnerHandler) Schedule(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	vehicleID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle id"})
	}
	ctx := c.Request().Context()
	if !h.ownsVehicle(ctx, ownerID, vehicleID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	timeline, err := h.Intervals.Schedule(ctx, vehicleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load schedule"})
	}
	items := make([]echo.Map, 0, len(timeline))
	for _, iv := range timeline {
		items = append(items, echo.Map{
			"status":    iv.Status.String(),
			"branch_id": iv.BranchID,
			"starts_at": iv.StartsAt,
			"ends_at":   iv.EndsAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type changeStatusReq struct {
	Status   string `json:"status"` // AVAILABLE | MAINTENANCE
	BranchID uint64 `json:"branch_id"`
}

// ChangeStatus handles PATCH /v1/owner/vehicles/:id/status.  The
// RENTED status can never be set by hand, and nothing changes while a
// rental is running.
func (h *OwnerHandler) ChangeStatus(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	vehicleID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle id"})
	}
	var req changeStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.BranchID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "branch_id is required"})
	}

	var status model.VehicleStatus
	switch strings.ToUpper(strings.TrimSpace(req.Status)) {
	case "AVAILABLE":
		status = model.StatusAvailable
	case "MAINTENANCE":
		status = model.StatusMaintenance
	case "RENTED":
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rented status is set by bookings only"})
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be AVAILABLE or MAINTENANCE"})
	}

	ctx := c.Request().Context()
	if !h.ownsVehicle(ctx, ownerID, vehicleID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if !h.ownsBranch(ctx, ownerID, req.BranchID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "branch does not belong to you"})
	}

	err = h.Coordinator.ChangeVehicleStatus(ctx, vehicleID, status, req.BranchID)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, booking.ErrManualRent):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rented status is set by bookings only"})
	case errors.Is(err, repository.ErrVehicleRented):
		return c.JSON(http.StatusConflict, echo.Map{"error": "vehicle is currently rented"})
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle has no current interval"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status change failed"})
	}
}

// ownsVehicle reports whether the vehicle exists and belongs to the
// owner.  Lookup failures count as not owned; callers respond 403.
func (h *OwnerHandler) ownsVehicle(ctx context.Context, ownerID, vehicleID uint64) bool {
	v, err := h.Vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return false
	}
	return v.OwnerID == ownerID
}

func (h *OwnerHandler) ownsBranch(ctx context.Context, ownerID, branchID uint64) bool {
	b, err := h.Branches.GetByID(ctx, branchID)
	if err != nil {
		return false
	}
	return b.OwnerID == ownerID
}
