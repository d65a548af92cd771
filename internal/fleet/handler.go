package fleet

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/richxcame/bus-booking/pkg/common"
	"github.com/richxcame/bus-booking/pkg/pagination"
)

// Handler handles HTTP requests for fleet management
type Handler struct {
	service *Service
}

// NewHandler creates a new fleet handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterBus registers a new bus
// POST /api/v1/buses
func (h *Handler) RegisterBus(c *gin.Context) {
	var req CreateBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	bus, err := h.service.RegisterBus(c.Request.Context(), &req)
	if err != nil {
		common.HandleError(c, err, "failed to register bus")
		return
	}

	common.CreatedResponse(c, bus)
}

// GetBus gets a bus by ID
// GET /api/v1/buses/:id
func (h *Handler) GetBus(c *gin.Context) {
	busID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid bus ID")
		return
	}

	bus, err := h.service.GetBus(c.Request.Context(), busID)
	if err != nil {
		common.HandleError(c, err, "failed to get bus")
		return
	}

	common.SuccessResponse(c, bus)
}

// ListBuses lists buses
// GET /api/v1/buses
func (h *Handler) ListBuses(c *gin.Context) {
	params := pagination.ParseParams(c)

	var status *BusStatus
	if raw := c.Query("status"); raw != "" {
		s := BusStatus(raw)
		status = &s
	}

	buses, total, err := h.service.ListBuses(c.Request.Context(), status, params.Limit, params.Offset)
	if err != nil {
		common.HandleError(c, err, "failed to list buses")
		return
	}

	common.SuccessResponseWithMeta(c, buses, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// UpdateBusStatus changes a bus status
// PATCH /api/v1/buses/:id/status
func (h *Handler) UpdateBusStatus(c *gin.Context) {
	busID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid bus ID")
		return
	}

	var req UpdateBusStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	bus, err := h.service.ChangeBusStatus(c.Request.Context(), busID, req.Status)
	if err != nil {
		common.HandleError(c, err, "failed to update bus status")
		return
	}

	common.SuccessResponse(c, bus)
}

// CreateRoute creates a route
// POST /api/v1/routes
func (h *Handler) CreateRoute(c *gin.Context) {
	var req CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	route, err := h.service.CreateRoute(c.Request.Context(), &req)
	if err != nil {
		common.HandleError(c, err, "failed to create route")
		return
	}

	common.CreatedResponse(c, route)
}

// GetRoute gets a route by ID
// GET /api/v1/routes/:id
func (h *Handler) GetRoute(c *gin.Context) {
	routeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid route ID")
		return
	}

	route, err := h.service.GetRoute(c.Request.Context(), routeID)
	if err != nil {
		common.HandleError(c, err, "failed to get route")
		return
	}

	common.SuccessResponse(c, route)
}

// ListRoutes lists active routes
// GET /api/v1/routes
func (h *Handler) ListRoutes(c *gin.Context) {
	params := pagination.ParseParams(c)

	var day *time.Weekday
	if raw := c.Query("day"); raw != "" {
		if parsed, ok := parseWeekday(raw); ok {
			day = &parsed
		}
	}

	routes, total, err := h.service.ListRoutes(c.Request.Context(), day, params.Limit, params.Offset)
	if err != nil {
		common.HandleError(c, err, "failed to list routes")
		return
	}

	common.SuccessResponseWithMeta(c, routes, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// UpdateRouteFare adjusts a route's base fare
// PATCH /api/v1/routes/:id/fare
func (h *Handler) UpdateRouteFare(c *gin.Context) {
	routeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid route ID")
		return
	}

	var req UpdateRouteFareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	route, err := h.service.UpdateRouteFare(c.Request.Context(), routeID, req.BaseFare)
	if err != nil {
		common.HandleError(c, err, "failed to update route fare")
		return
	}

	common.SuccessResponse(c, route)
}

// DeactivateRoute retires a route
// DELETE /api/v1/routes/:id
func (h *Handler) DeactivateRoute(c *gin.Context) {
	routeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid route ID")
		return
	}

	if err := h.service.DeactivateRoute(c.Request.Context(), routeID); err != nil {
		common.HandleError(c, err, "failed to deactivate route")
		return
	}

	common.SuccessResponse(c, gin.H{"deactivated": true})
}

func parseWeekday(raw string) (time.Weekday, bool) {
	names := map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday,
		"friday": time.Friday, "saturday": time.Saturday,
	}
	if d, ok := names[raw]; ok {
		return d, true
	}
	return 0, false
}
