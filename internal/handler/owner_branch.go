package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tuanngo/car-rental-api/internal/booking"
	"github.com/tuanngo/car-rental-api/internal/model"
	"github.com/tuanngo/car-rental-api/internal/repository"
)

// OwnerHandler bundles the dependencies owners need to manage their
// branches, fleet, schedules and prices.  Role middleware guarantees
// only OWNER tokens reach these methods.
type OwnerHandler struct {
	Coordinator *booking.Coordinator
	Vehicles    *repository.VehicleRepo
	Branches    *repository.BranchRepo
	Intervals   *repository.IntervalRepo
	Prices      *repository.PriceRepo
}

// NewOwnerHandler constructs an OwnerHandler and panics if any dependency is nil.
func NewOwnerHandler(co *booking.Coordinator, vehicles *repository.VehicleRepo, branches *repository.BranchRepo, intervals *repository.IntervalRepo, prices *repository.PriceRepo) *OwnerHandler {
	if co == nil || vehicles == nil || branches == nil || intervals == nil || prices == nil {
		panic("nil dependency passed to NewOwnerHandler")
	}
	return &OwnerHandler{Coordinator: co, Vehicles: vehicles, Branches: branches, Intervals: intervals, Prices: prices}
}

type createBranchReq struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// CreateBranch handles POST /v1/owner/branches.
func (h *OwnerHandler) CreateBranch(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBranchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	b := model.Branch{
		OwnerID: ownerID,
		Name:    req.Name,
		Address: strings.TrimSpace(req.Address),
		Lat:     req.Lat,
		Lng:     req.Lng,
	}
	if err := h.Branches.Create(c.Request().Context(), &b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create branch failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": b.ID})
}

// ListBranches handles GET /v1/owner/branches.
func (h *OwnerHandler) ListBranches(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	branches, err := h.Branches.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load branches"})
	}
	items := make([]echo.Map, 0, len(branches))
	for _, b := range branches {
		items = append(items, echo.Map{
			"id":      b.ID,
			"name":    b.Name,
			"address": b.Address,
			"lat":     b.Lat,
			"lng":     b.Lng,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
