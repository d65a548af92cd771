package bookings

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/richxcame/bus-booking/pkg/common"
	"github.com/richxcame/bus-booking/pkg/middleware"
	"github.com/richxcame/bus-booking/pkg/pagination"
)

// Handler handles HTTP requests for seat bookings
type Handler struct {
	service *Service
}

// NewHandler creates a new bookings handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateBooking books seats on a route
// POST /api/v1/bookings
func (h *Handler) CreateBooking(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	booking, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		common.HandleError(c, err, "failed to create booking")
		return
	}

	common.CreatedResponse(c, booking)
}

// GetBooking fetches one booking
// GET /api/v1/bookings/:id
func (h *Handler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	booking, err := h.service.Get(c.Request.Context(), bookingID)
	if err != nil {
		common.HandleError(c, err, "failed to get booking")
		return
	}

	common.SuccessResponse(c, booking)
}

// ListMyBookings lists the caller's bookings
// GET /api/v1/bookings
func (h *Handler) ListMyBookings(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	params := pagination.ParseParams(c)
	bookings, total, err := h.service.ListByUser(c.Request.Context(), userID, params.Limit, params.Offset)
	if err != nil {
		common.HandleError(c, err, "failed to list bookings")
		return
	}

	common.SuccessResponseWithMeta(c, bookings, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// CancelBooking cancels an active booking and quotes the refund
// POST /api/v1/bookings/:id/cancel
func (h *Handler) CancelBooking(c *gin.Context) {
	actor, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	booking, quote, err := h.service.Cancel(c.Request.Context(), bookingID, actor, middleware.IsAdmin(c), req.Reason)
	if err != nil {
		common.HandleError(c, err, "failed to cancel booking")
		return
	}

	common.SuccessResponse(c, gin.H{"booking": booking, "refund": quote})
}

// CompleteBooking marks a booking's trip as taken
// POST /api/v1/admin/bookings/:id/complete
func (h *Handler) CompleteBooking(c *gin.Context) {
	h.operational(c, h.service.MarkCompleted)
}

// MarkNoShow marks a booking as a no-show
// POST /api/v1/admin/bookings/:id/no-show
func (h *Handler) MarkNoShow(c *gin.Context) {
	h.operational(c, h.service.MarkNoShow)
}

// RecalculateFare reprices a booking against the current route fare
// POST /api/v1/admin/bookings/:id/recalculate-fare
func (h *Handler) RecalculateFare(c *gin.Context) {
	h.operational(c, h.service.RecalculateFare)
}

func (h *Handler) operational(c *gin.Context, op func(ctx context.Context, bookingID, actor uuid.UUID) (*Booking, error)) {
	actor, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	booking, err := op(c.Request.Context(), bookingID, actor)
	if err != nil {
		common.HandleError(c, err, "failed to update booking")
		return
	}

	common.SuccessResponse(c, booking)
}

// GetBookingLedger returns the booking's payment ledger
// GET /api/v1/bookings/:id/ledger
func (h *Handler) GetBookingLedger(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	entries, summary, err := h.service.GetLedger(c.Request.Context(), bookingID)
	if err != nil {
		common.HandleError(c, err, "failed to load ledger")
		return
	}

	common.SuccessResponse(c, gin.H{
		"payments": entries.Payments,
		"refunds":  entries.Refunds,
		"summary":  summary,
	})
}

// GetBookingHistory returns the booking's status audit trail
// GET /api/v1/bookings/:id/history
func (h *Handler) GetBookingHistory(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	entries, err := h.service.StatusHistory(c.Request.Context(), bookingID)
	if err != nil {
		common.HandleError(c, err, "failed to load status history")
		return
	}

	common.SuccessResponse(c, entries)
}
