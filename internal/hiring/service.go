package hiring

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/richxcame/bus-booking/internal/availability"
	"github.com/richxcame/bus-booking/internal/cancellation"
	"github.com/richxcame/bus-booking/internal/fleet"
	"github.com/richxcame/bus-booking/internal/history"
	"github.com/richxcame/bus-booking/internal/ledger"
	"github.com/richxcame/bus-booking/pkg/common"
	"github.com/richxcame/bus-booking/pkg/config"
	"github.com/richxcame/bus-booking/pkg/logger"
)

// RepositoryInterface abstracts hiring persistence for testing
type RepositoryInterface interface {
	Create(ctx context.Context, h *Hiring) error
	Get(ctx context.Context, hiringID uuid.UUID) (*Hiring, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Hiring, int64, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Hiring, int64, error)
	UpdateStatus(ctx context.Context, hiringID uuid.UUID, status Status) error
}

// FleetService resolves buses and routes for pricing and validation
type FleetService interface {
	GetBus(ctx context.Context, busID uuid.UUID) (*fleet.Bus, error)
	GetRoute(ctx context.Context, routeID uuid.UUID) (*fleet.Route, error)
}

// AvailabilityChecker answers whether a bus is free over a window
type AvailabilityChecker interface {
	CheckBusWindow(ctx context.Context, busID uuid.UUID, window availability.Window, exclude *uuid.UUID) (*availability.Result, error)
}

// LedgerService records money movements against the hiring
type LedgerService interface {
	Get(ctx context.Context, resType ledger.ReservationType, resID uuid.UUID, totalDue float64) (*ledger.Ledger, ledger.Summary, error)
	RecordPayment(ctx context.Context, resType ledger.ReservationType, resID uuid.UUID, totalDue float64, p ledger.Payment) (ledger.Summary, error)
	RecordRefund(ctx context.Context, resType ledger.ReservationType, resID uuid.UUID, totalDue float64, rf ledger.Refund) (ledger.Summary, error)
}

// Notifier emits reservation events; delivery is someone else's problem
type Notifier interface {
	HiringConfirmed(ctx context.Context, userID, hiringID uuid.UUID, payload map[string]any)
	HiringCancelled(ctx context.Context, userID, hiringID uuid.UUID, payload map[string]any)
	RefundProcessed(ctx context.Context, userID, reservationID uuid.UUID, payload map[string]any)
}

// allowed transitions out of each non-terminal status
var transitions = map[Status][]Status{
	StatusPending:    {StatusApproved, StatusRejected, StatusCancelled, StatusRefunded},
	StatusApproved:   {StatusConfirmed, StatusCancelled, StatusRefunded},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusRefunded},
	StatusInProgress: {StatusCompleted},
}

func canTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Service handles hiring business logic
type Service struct {
	repo          RepositoryInterface
	fleet         FleetService
	checker       AvailabilityChecker
	ledger        LedgerService
	history       history.RepositoryInterface
	notifier      Notifier
	defaultPolicy cancellation.Policy
}

// NewService creates a new hiring service
func NewService(
	repo RepositoryInterface,
	fleetSvc FleetService,
	checker AvailabilityChecker,
	ledgerSvc LedgerService,
	historyRepo history.RepositoryInterface,
	notifier Notifier,
	cfg *config.BusinessConfig,
) *Service {
	defaultPolicy := cancellation.PolicyStandard
	if cfg != nil && cancellation.Policy(cfg.DefaultHiringPolicy).Valid() {
		defaultPolicy = cancellation.Policy(cfg.DefaultHiringPolicy)
	}
	return &Service{
		repo:          repo,
		fleet:         fleetSvc,
		checker:       checker,
		ledger:        ledgerSvc,
		history:       historyRepo,
		notifier:      notifier,
		defaultPolicy: defaultPolicy,
	}
}

// RequestHiring validates a hire request, checks the bus is free over the
// window, prices the contract and creates it in Pending
func (s *Service) RequestHiring(ctx context.Context, userID uuid.UUID, req *CreateHiringRequest) (*Hiring, error) {
	if !req.EndDate.After(req.StartDate) {
		return nil, common.NewBadRequestError("end_date must be after start_date", nil)
	}
	if req.TripType == TripRoundTrip && req.ReturnDate == nil {
		return nil, common.NewBadRequestError("return_date is required for round trips", nil)
	}
	if req.TripType == TripOneWay && req.ReturnDate != nil {
		return nil, common.NewBadRequestError("return_date is only valid for round trips", nil)
	}

	bus, err := s.fleet.GetBus(ctx, req.BusID)
	if err != nil {
		return nil, err
	}
	if !bus.Status.Assignable() {
		return nil, common.NewConflictError(common.CodeBusUnavailable,
			"bus is not available for hire",
			map[string]string{"bus_id": bus.ID.String(), "status": string(bus.Status)})
	}

	var route *fleet.Route
	if req.RateType == RateRouteBased {
		if req.RouteID == nil {
			return nil, common.NewBadRequestError("route-based pricing requires a linked route", nil)
		}
		route, err = s.fleet.GetRoute(ctx, *req.RouteID)
		if err != nil {
			return nil, err
		}
	}

	window := availability.Window{Start: req.StartDate.UTC(), End: req.EndDate.UTC()}
	result, err := s.checker.CheckBusWindow(ctx, req.BusID, window, nil)
	if err != nil {
		return nil, err
	}
	if !result.Available {
		return nil, common.NewConflictError(common.CodeBusUnavailable,
			"bus is already reserved over the requested window",
			conflictDetails(result))
	}

	policy := s.defaultPolicy
	if req.Policy != "" {
		policy = cancellation.Policy(req.Policy)
	}

	now := time.Now().UTC()
	h := &Hiring{
		ID:                   uuid.New(),
		Reference:            common.GenerateReference("HR"),
		UserID:               userID,
		BusID:                req.BusID,
		RouteID:              req.RouteID,
		Status:               StatusPending,
		Purpose:              req.Purpose,
		PassengerCount:       req.PassengerCount,
		StartLocation:        req.StartLocation,
		EndLocation:          req.EndLocation,
		StartDate:            req.StartDate.UTC(),
		EndDate:              req.EndDate.UTC(),
		TripType:             req.TripType,
		ReturnDate:           req.ReturnDate,
		RateType:             req.RateType,
		BaseRate:             req.BaseRate,
		EstimatedDistance:    req.EstimatedDistance,
		RoutePriceMultiplier: req.RoutePriceMultiplier,
		DriverAllowance:      req.DriverAllowance,
		OvertimeRate:         req.OvertimeRate,
		AdditionalCharges:    req.AdditionalCharges,
		Deposit:              req.Deposit,
		Policy:               policy,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	h.TotalCost, err = CalculateTotalCost(h, route, bus)
	if err != nil {
		return nil, err
	}
	if h.Deposit > h.TotalCost {
		return nil, common.NewBadRequestError("deposit cannot exceed total cost", nil)
	}

	if err := s.repo.Create(ctx, h); err != nil {
		return nil, common.NewInternalError("failed to create hiring", err)
	}
	s.appendHistory(ctx, h.ID, StatusPending, userID, "hiring requested")

	logger.WithContext(ctx).Info("Hiring requested",
		zap.String("hiring_id", h.ID.String()),
		zap.String("reference", h.Reference),
		zap.String("rate_type", string(h.RateType)),
		zap.Float64("total_cost", h.TotalCost))

	return h, nil
}

// Get fetches a hiring by id
func (s *Service) Get(ctx context.Context, hiringID uuid.UUID) (*Hiring, error) {
	h, err := s.repo.Get(ctx, hiringID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, common.NewNotFoundError("hiring not found", err)
		}
		return nil, common.NewInternalError("failed to get hiring", err)
	}
	return h, nil
}

// ListByUser lists a user's hirings
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Hiring, int64, error) {
	hirings, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, common.NewInternalError("failed to list hirings", err)
	}
	return hirings, total, nil
}

// ListByStatus lists hirings awaiting action, e.g. the pending review queue
func (s *Service) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Hiring, int64, error) {
	hirings, total, err := s.repo.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, common.NewInternalError("failed to list hirings", err)
	}
	return hirings, total, nil
}

// Approve moves a pending hiring to approved
func (s *Service) Approve(ctx context.Context, hiringID, actor uuid.UUID, notes string) (*Hiring, error) {
	return s.transition(ctx, hiringID, StatusApproved, actor, notes)
}

// Reject moves a pending hiring to rejected
func (s *Service) Reject(ctx context.Context, hiringID, actor uuid.UUID, notes string) (*Hiring, error) {
	return s.transition(ctx, hiringID, StatusRejected, actor, notes)
}

// Start moves a confirmed hiring to in progress at pickup time
func (s *Service) Start(ctx context.Context, hiringID, actor uuid.UUID) (*Hiring, error) {
	return s.transition(ctx, hiringID, StatusInProgress, actor, "trip started")
}

// Complete moves an in-progress hiring to completed
func (s *Service) Complete(ctx context.Context, hiringID, actor uuid.UUID) (*Hiring, error) {
	return s.transition(ctx, hiringID, StatusCompleted, actor, "trip completed")
}

// ApplyPayment records a payment against the hiring's ledger. An approved
// hiring auto-advances to confirmed once total paid covers the deposit.
func (s *Service) ApplyPayment(ctx context.Context, hiringID uuid.UUID, p ledger.Payment) (*Hiring, ledger.Summary, error) {
	h, err := s.Get(ctx, hiringID)
	if err != nil {
		return nil, ledger.Summary{}, err
	}
	if h.Status.Terminal() {
		return nil, ledger.Summary{}, common.NewUnprocessableError(common.CodeInvalidTransition,
			fmt.Sprintf("cannot record payment on a %s hiring", h.Status))
	}

	summary, err := s.ledger.RecordPayment(ctx, ledger.ReservationHiring, hiringID, h.TotalCost, p)
	if err != nil {
		return nil, ledger.Summary{}, err
	}

	if h.Status == StatusApproved && summary.TotalPaid >= h.Deposit {
		h, err = s.transition(ctx, hiringID, StatusConfirmed, p.ProcessedBy, "deposit received")
		if err != nil {
			return nil, summary, err
		}
		s.notifier.HiringConfirmed(ctx, h.UserID, h.ID, map[string]any{
			"reference":  h.Reference,
			"total_paid": summary.TotalPaid,
			"total_cost": h.TotalCost,
		})
	}

	return h, summary, nil
}

// Cancel cancels an active hiring, computing the refund under the contract's
// policy and recording it through the ledger in the same logical operation
func (s *Service) Cancel(ctx context.Context, hiringID, actor uuid.UUID, reason string) (*Hiring, *cancellation.Quote, error) {
	h, err := s.Get(ctx, hiringID)
	if err != nil {
		return nil, nil, err
	}
	if !h.Status.Active() {
		return nil, nil, common.NewUnprocessableError(common.CodeInvalidTransition,
			fmt.Sprintf("cannot cancel a %s hiring", h.Status))
	}

	_, summary, err := s.ledger.Get(ctx, ledger.ReservationHiring, hiringID, h.TotalCost)
	if err != nil {
		return nil, nil, err
	}

	quote, err := cancellation.QuoteHiringRefund(h.Policy, h.StartDate, time.Now().UTC(), summary.TotalPaid)
	if err != nil {
		return nil, nil, err
	}

	finalStatus := StatusCancelled
	if quote.RefundAmount > 0 {
		if _, err := s.ledger.RecordRefund(ctx, ledger.ReservationHiring, hiringID, h.TotalCost, ledger.Refund{
			Amount:         quote.RefundAmount,
			Reason:         reason,
			TransactionRef: common.GenerateReference("RF"),
		}); err != nil {
			return nil, nil, err
		}
		finalStatus = StatusRefunded
	}

	h, err = s.transition(ctx, hiringID, finalStatus, actor, reason)
	if err != nil {
		return nil, nil, err
	}

	s.notifier.HiringCancelled(ctx, h.UserID, h.ID, map[string]any{
		"reference":         h.Reference,
		"refund_amount":     quote.RefundAmount,
		"refund_percentage": quote.RefundPercentage,
	})
	if quote.RefundAmount > 0 {
		s.notifier.RefundProcessed(ctx, h.UserID, h.ID, map[string]any{
			"reference":     h.Reference,
			"refund_amount": quote.RefundAmount,
		})
	}

	return h, &quote, nil
}

// StatusHistory returns the audit trail for a hiring
func (s *Service) StatusHistory(ctx context.Context, hiringID uuid.UUID) ([]*history.Entry, error) {
	entries, err := s.history.List(ctx, string(ledger.ReservationHiring), hiringID)
	if err != nil {
		return nil, common.NewInternalError("failed to load status history", err)
	}
	return entries, nil
}

// GetLedger returns the hiring's ledger entries and derived summary
func (s *Service) GetLedger(ctx context.Context, hiringID uuid.UUID) (*ledger.Ledger, ledger.Summary, error) {
	h, err := s.Get(ctx, hiringID)
	if err != nil {
		return nil, ledger.Summary{}, err
	}
	return s.ledger.Get(ctx, ledger.ReservationHiring, hiringID, h.TotalCost)
}

func (s *Service) transition(ctx context.Context, hiringID uuid.UUID, to Status, actor uuid.UUID, notes string) (*Hiring, error) {
	h, err := s.Get(ctx, hiringID)
	if err != nil {
		return nil, err
	}
	if !canTransition(h.Status, to) {
		return nil, common.NewUnprocessableError(common.CodeInvalidTransition,
			fmt.Sprintf("cannot transition hiring from %s to %s", h.Status, to))
	}

	if err := s.repo.UpdateStatus(ctx, hiringID, to); err != nil {
		return nil, common.NewInternalError("failed to update hiring status", err)
	}
	s.appendHistory(ctx, hiringID, to, actor, notes)

	logger.WithContext(ctx).Info("Hiring status changed",
		zap.String("hiring_id", hiringID.String()),
		zap.String("from", string(h.Status)),
		zap.String("to", string(to)))

	h.Status = to
	return h, nil
}

func (s *Service) appendHistory(ctx context.Context, hiringID uuid.UUID, status Status, actor uuid.UUID, notes string) {
	if err := s.history.Append(ctx, &history.Entry{
		ReservationType: string(ledger.ReservationHiring),
		ReservationID:   hiringID,
		Status:          string(status),
		Actor:           actor,
		Notes:           notes,
	}); err != nil {
		logger.WithContext(ctx).Warn("Failed to append status history",
			zap.String("hiring_id", hiringID.String()),
			zap.Error(err))
	}
}

func conflictDetails(result *availability.Result) map[string]string {
	details := make(map[string]string, len(result.ConflictingReservations))
	for _, ref := range result.ConflictingReservations {
		details[ref.ID.String()] = ref.Type + " " + ref.Reference
	}
	return details
}
