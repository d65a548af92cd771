package payments

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/richxcame/bus-booking/internal/ledger"
	"github.com/richxcame/bus-booking/pkg/common"
	"github.com/richxcame/bus-booking/pkg/middleware"
)

// InitializePaymentRequest starts a gateway charge for a reservation
type InitializePaymentRequest struct {
	ReservationType string    `json:"reservation_type" binding:"required,oneof=booking hiring"`
	ReservationID   uuid.UUID `json:"reservation_id" binding:"required"`
	Email           string    `json:"email" binding:"required,email"`
	Amount          float64   `json:"amount" binding:"omitempty,gt=0"`
}

// VerifyPaymentRequest confirms a gateway charge against a reservation
type VerifyPaymentRequest struct {
	ReservationType string    `json:"reservation_type" binding:"required,oneof=booking hiring"`
	ReservationID   uuid.UUID `json:"reservation_id" binding:"required"`
	Reference       string    `json:"reference" binding:"required"`
}

// Handler handles HTTP requests for payments
type Handler struct {
	service *Service
}

// NewHandler creates a new payments handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// InitializePayment starts a payment for a reservation's balance
// POST /api/v1/payments/initialize
func (h *Handler) InitializePayment(c *gin.Context) {
	var req InitializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.Initialize(c.Request.Context(),
		ledger.ReservationType(req.ReservationType), req.ReservationID, req.Email, req.Amount)
	if err != nil {
		common.HandleError(c, err, "failed to initialize payment")
		return
	}

	common.SuccessResponse(c, resp)
}

// VerifyPayment verifies a gateway reference and records the payment
// POST /api/v1/payments/verify
func (h *Handler) VerifyPayment(c *gin.Context) {
	actor, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := h.service.VerifyAndRecord(c.Request.Context(),
		ledger.ReservationType(req.ReservationType), req.ReservationID, req.Reference, actor)
	if err != nil {
		common.HandleError(c, err, "failed to verify payment")
		return
	}

	common.SuccessResponse(c, summary)
}
