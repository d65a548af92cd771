package tickets

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/richxcame/bus-booking/pkg/common"
	"github.com/richxcame/bus-booking/pkg/middleware"
)

// Handler handles HTTP requests for tickets
type Handler struct {
	service *Service
}

// NewHandler creates a new tickets handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetTicket returns the printable ticket data for a paid booking
// GET /api/v1/tickets/:reference
func (h *Handler) GetTicket(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "reference is required")
		return
	}

	data, err := h.service.IssueData(c.Request.Context(), reference)
	if err != nil {
		common.HandleError(c, err, "failed to issue ticket")
		return
	}

	common.SuccessResponse(c, data)
}

// VerifyTicket records a boarding scan for a ticket
// POST /api/v1/tickets/:reference/verify
func (h *Handler) VerifyTicket(c *gin.Context) {
	verifiedBy, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	reference := c.Param("reference")
	if reference == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "reference is required")
		return
	}

	var req VerifyTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	v, err := h.service.Verify(c.Request.Context(), reference, verifiedBy, req.Notes)
	if err != nil {
		common.HandleError(c, err, "failed to verify ticket")
		return
	}

	common.SuccessResponse(c, v)
}

// GetVerifications returns the verification history for a booking
// GET /api/v1/bookings/:id/verifications
func (h *Handler) GetVerifications(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	verifications, err := h.service.History(c.Request.Context(), bookingID)
	if err != nil {
		common.HandleError(c, err, "failed to load verifications")
		return
	}

	common.SuccessResponse(c, verifications)
}
