package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tuanngo/car-rental-api/internal/booking"
	"github.com/tuanngo/car-rental-api/internal/model"
	"github.com/tuanngo/car-rental-api/internal/queue"
	"github.com/tuanngo/car-rental-api/internal/repository"
	queue_publisher "github.com/tuanngo/car-rental-api/internal/service"
)

// RentalHandler serves the customer booking endpoints.  All writes go
// through the booking coordinator; the handler never touches interval
// rows directly.  JWT and role middleware run before every method.
type RentalHandler struct {
	Coordinator *booking.Coordinator
	Contracts   *repository.ContractRepo
	Vehicles    *repository.VehicleRepo
	Prices      *repository.PriceRepo
}

func NewRentalHandler(co *booking.Coordinator, contracts *repository.ContractRepo, vehicles *repository.VehicleRepo, prices *repository.PriceRepo) *RentalHandler {
	if co == nil || contracts == nil || vehicles == nil || prices == nil {
		panic("nil dependency passed to NewRentalHandler")
	}
	return &RentalHandler{Coordinator: co, Contracts: contracts, Vehicles: vehicles, Prices: prices}
}

type createRentalReq struct {
	VehicleID uint64 `json:"vehicle_id"`
	StartsAt  string `json:"starts_at"` // RFC3339, UTC
	EndsAt    string `json:"ends_at"`   // RFC3339, UTC, exclusive
	TermsID   uint64 `json:"terms_id"`
	Detail    string `json:"detail"`
}

// Create handles POST /v1/rentals.  It books the vehicle for the
// requested window, returning 201 with the contract ID, 409 when the
// window overlaps an existing rental, or 400 for invalid input.
func (h *RentalHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createRentalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.VehicleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "vehicle_id is required"})
	}
	w, err := parseWindow(req.StartsAt, req.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	contractID, err := h.Coordinator.CreateBooking(ctx, userID, req.VehicleID, w, req.TermsID, req.Detail)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrInvalidWindow):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
		case errors.Is(err, booking.ErrNoPrice):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "vehicle has no published price"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "vehicle is already rented in that window"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
		}
	}

	go h.publishBooked(contractID, userID, req.VehicleID, w)

	return c.JSON(http.StatusCreated, echo.Map{"contract_id": contractID})
}

// Cancel handles DELETE /v1/rentals/:id.  Only the customer who
// booked the contract may cancel it.
func (h *RentalHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	contractID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contract id"})
	}

	ctx := c.Request().Context()
	contract, err := h.Contracts.GetByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "contract not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if contract.CustomerID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if err := h.Coordinator.CancelBooking(ctx, contractID); err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "contract not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}

	go publishCancelled(contract)

	return c.NoContent(http.StatusNoContent)
}

type contractItem struct {
	ID           uint64    `json:"id"`
	VehicleID    uint64    `json:"vehicle_id"`
	PriceQuoteID uint64    `json:"price_quote_id"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	Detail       string    `json:"detail,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListMine handles GET /v1/my-rentals, returning the caller's
// contracts newest first.
func (h *RentalHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	contracts, err := h.Contracts.ListByCustomer(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rentals"})
	}
	items := make([]contractItem, 0, len(contracts))
	for _, ct := range contracts {
		items = append(items, contractItem{
			ID:           ct.ID,
			VehicleID:    ct.VehicleID,
			PriceQuoteID: ct.PriceQuoteID,
			StartsAt:     ct.StartsAt,
			EndsAt:       ct.EndsAt,
			Detail:       ct.Detail,
			CreatedAt:    ct.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// publishBooked emits the rental.booked event after a successful
// commit.  Failures only affect the event stream, never the booking.
func (h *RentalHandler) publishBooked(contractID, customerID, vehicleID uint64, w booking.Window) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ev := queue.RentalBookedEvent{
		ContractID: contractID,
		CustomerID: customerID,
		VehicleID:  vehicleID,
		StartsAt:   w.Start.Format(time.RFC3339),
		EndsAt:     w.End.Format(time.RFC3339),
		BookedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if v, err := h.Vehicles.GetByID(ctx, vehicleID); err == nil {
		ev.PlateNumber = v.PlateNumber
	}
	if q, err := h.Prices.Current(ctx, vehicleID); err == nil {
		ev.BranchID = q.BranchID
		ev.DailyRateCents = q.DailyRateCents
	}
	_ = queue_publisher.PublishRentalBooked(ctx, ev)
}

func publishCancelled(contract model.RentalContract) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = queue_publisher.PublishRentalCancelled(ctx, queue.RentalCancelledEvent{
		ContractID:  contract.ID,
		CustomerID:  contract.CustomerID,
		VehicleID:   contract.VehicleID,
		StartsAt:    contract.StartsAt.Format(time.RFC3339),
		EndsAt:      contract.EndsAt.Format(time.RFC3339),
		CancelledAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// parseWindow parses RFC3339 start/end strings into a half-open
// rental window in UTC.
func parseWindow(start, end string) (booking.Window, error) {
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return booking.Window{}, errors.New("starts_at must be RFC3339")
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return booking.Window{}, errors.New("ends_at must be RFC3339")
	}
	return booking.Window{Start: s.UTC(), End: e.UTC()}, nil
}
