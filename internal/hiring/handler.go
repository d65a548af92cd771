package hiring

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/richxcame/bus-booking/pkg/common"
	"github.com/richxcame/bus-booking/pkg/middleware"
	"github.com/richxcame/bus-booking/pkg/pagination"
)

// Handler handles HTTP requests for bus hiring
type Handler struct {
	service *Service
}

// NewHandler creates a new hiring handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RequestHiring creates a hiring request
// POST /api/v1/hirings
func (h *Handler) RequestHiring(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateHiringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	hiring, err := h.service.RequestHiring(c.Request.Context(), userID, &req)
	if err != nil {
		common.HandleError(c, err, "failed to request hiring")
		return
	}

	common.CreatedResponse(c, hiring)
}

// GetHiring fetches one hiring
// GET /api/v1/hirings/:id
func (h *Handler) GetHiring(c *gin.Context) {
	hiringID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid hiring ID")
		return
	}

	hiring, err := h.service.Get(c.Request.Context(), hiringID)
	if err != nil {
		common.HandleError(c, err, "failed to get hiring")
		return
	}

	common.SuccessResponse(c, hiring)
}

// ListMyHirings lists the caller's hirings
// GET /api/v1/hirings
func (h *Handler) ListMyHirings(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	params := pagination.ParseParams(c)
	hirings, total, err := h.service.ListByUser(c.Request.Context(), userID, params.Limit, params.Offset)
	if err != nil {
		common.HandleError(c, err, "failed to list hirings")
		return
	}

	common.SuccessResponseWithMeta(c, hirings, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// ListPendingHirings lists the admin review queue
// GET /api/v1/admin/hirings/pending
func (h *Handler) ListPendingHirings(c *gin.Context) {
	params := pagination.ParseParams(c)
	hirings, total, err := h.service.ListByStatus(c.Request.Context(), StatusPending, params.Limit, params.Offset)
	if err != nil {
		common.HandleError(c, err, "failed to list pending hirings")
		return
	}

	common.SuccessResponseWithMeta(c, hirings, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// ApproveHiring approves a pending hiring
// POST /api/v1/admin/hirings/:id/approve
func (h *Handler) ApproveHiring(c *gin.Context) {
	h.decide(c, (*Service).Approve)
}

// RejectHiring rejects a pending hiring
// POST /api/v1/admin/hirings/:id/reject
func (h *Handler) RejectHiring(c *gin.Context) {
	h.decide(c, (*Service).Reject)
}

func (h *Handler) decide(c *gin.Context, op func(*Service, context.Context, uuid.UUID, uuid.UUID, string) (*Hiring, error)) {
	actor, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	hiringID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid hiring ID")
		return
	}

	var req DecisionRequest
	_ = c.ShouldBindJSON(&req)

	hiring, err := op(h.service, c.Request.Context(), hiringID, actor, req.Notes)
	if err != nil {
		common.HandleError(c, err, "failed to update hiring")
		return
	}

	common.SuccessResponse(c, hiring)
}

// StartHiring marks the trip as started
// POST /api/v1/admin/hirings/:id/start
func (h *Handler) StartHiring(c *gin.Context) {
	h.operate(c, h.service.Start)
}

// CompleteHiring marks the trip as completed
// POST /api/v1/admin/hirings/:id/complete
func (h *Handler) CompleteHiring(c *gin.Context) {
	h.operate(c, h.service.Complete)
}

func (h *Handler) operate(c *gin.Context, op func(ctx context.Context, hiringID, actor uuid.UUID) (*Hiring, error)) {
	actor, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	hiringID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid hiring ID")
		return
	}

	hiring, err := op(c.Request.Context(), hiringID, actor)
	if err != nil {
		common.HandleError(c, err, "failed to update hiring")
		return
	}

	common.SuccessResponse(c, hiring)
}

// CancelHiring cancels an active hiring and quotes the refund
// POST /api/v1/hirings/:id/cancel
func (h *Handler) CancelHiring(c *gin.Context) {
	actor, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	hiringID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid hiring ID")
		return
	}

	var req CancelHiringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	hiring, quote, err := h.service.Cancel(c.Request.Context(), hiringID, actor, req.Reason)
	if err != nil {
		common.HandleError(c, err, "failed to cancel hiring")
		return
	}

	common.SuccessResponse(c, gin.H{"hiring": hiring, "refund": quote})
}

// GetHiringLedger returns the hiring's payment ledger
// GET /api/v1/hirings/:id/ledger
func (h *Handler) GetHiringLedger(c *gin.Context) {
	hiringID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid hiring ID")
		return
	}

	entries, summary, err := h.service.GetLedger(c.Request.Context(), hiringID)
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

// GetHiringHistory returns the hiring's status audit trail
// GET /api/v1/hirings/:id/history
func (h *Handler) GetHiringHistory(c *gin.Context) {
	hiringID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid hiring ID")
		return
	}

	entries, err := h.service.StatusHistory(c.Request.Context(), hiringID)
	if err != nil {
		common.HandleError(c, err, "failed to load status history")
		return
	}

	common.SuccessResponse(c, entries)
}
